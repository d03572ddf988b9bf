package model

import "time"

const (
	//reminder lifecycle statuses
	SCHEDULED string = "SCHEDULED"
	SENT             = "SENT"
	FAILED           = "FAILED"
	CANCELLED        = "CANCELLED"
)

const (
	//MaxRetries bounds delivery attempts per reminder
	MaxRetries = 3
	//MaxHorizon bounds how far ahead a reminder may be scheduled
	MaxHorizon = 365 * 24 * time.Hour
)

type Reminder struct {
	Id               string `storm:"id"`
	Recipient        string
	Body             string
	FireAt           time.Time
	Status           string `storm:"index"`
	RetryCount       int
	LastError        string
	ChannelMessageId string
	SentAt           *time.Time
	CreatedAt        time.Time `storm:"index"`
}

//IsTerminal reports whether the reminder reached a final state
func (r Reminder) IsTerminal() bool {
	return r.Status == SENT || r.Status == FAILED || r.Status == CANCELLED
}
