package model

import "time"

const (
	//embedded scheduler job statuses
	JOB_PENDING string = "PENDING"
	JOB_RUNNING        = "RUNNING"
	JOB_DONE           = "DONE"
	JOB_FAILED         = "FAILED"
)

type Job struct {
	Id          uint64 `storm:"id,increment"`
	ReminderId  string `storm:"index"`
	Target      string
	Payload     []byte
	FireAt      time.Time `storm:"index"`
	Status      string    `storm:"index"`
	Attempts    int
	MaxAttempts int
	LastError   string
	CreatedAt   time.Time
}
