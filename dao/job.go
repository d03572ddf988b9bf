package dao

import (
	"time"

	"github.com/artemmm11/SMS-reminder/model"
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
)

type JobDao interface {
	//Create persists a pending delivery job and returns its id
	Create(reminderId, target string, payload []byte, fireAt time.Time, maxAttempts int) (uint64, error)
	//ClaimDue atomically takes the earliest due pending job, marking it
	//running so no other claimer picks it up. Returns nil when nothing is due.
	ClaimDue(now time.Time) (*model.Job, error)
	//MarkDone finishes a job after a successful callback
	MarkDone(id uint64) error
	//MarkFailed finishes a job after its retry budget is spent
	MarkFailed(id uint64, errMsg string) error
	//RetryLater returns a claimed job to the pending queue with a new fire time
	RetryLater(id uint64, attempts int, fireAt time.Time, errMsg string) error
	//RequeueRunning returns every RUNNING job to the pending queue and reports
	//how many were moved. A job still RUNNING at startup was claimed by a
	//process that died before finishing it.
	RequeueRunning() (int, error)
}

func NewJobDao(db Db) JobDao {
	return &jobDao{db: db}
}

type jobDao struct {
	db Db
}

func (d jobDao) Create(reminderId, target string, payload []byte, fireAt time.Time, maxAttempts int) (uint64, error) {
	job := &model.Job{
		ReminderId:  reminderId,
		Target:      target,
		Payload:     payload,
		FireAt:      fireAt,
		Status:      model.JOB_PENDING,
		MaxAttempts: maxAttempts,
		CreatedAt:   time.Now(),
	}
	err := d.db.Save(job)
	return job.Id, err
}

func (d jobDao) ClaimDue(now time.Time) (*model.Job, error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var jobs []model.Job
	err = tx.Select(q.Eq("Status", model.JOB_PENDING), q.Lte("FireAt", now)).OrderBy("FireAt").Limit(1).Find(&jobs)
	if err == storm.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	job := jobs[0]
	job.Status = model.JOB_RUNNING
	if err := tx.Update(&job); err != nil {
		return nil, err
	}

	return &job, tx.Commit()
}

func (d jobDao) MarkDone(id uint64) error {
	return d.update(id, func(job *model.Job) {
		job.Status = model.JOB_DONE
	})
}

func (d jobDao) MarkFailed(id uint64, errMsg string) error {
	return d.update(id, func(job *model.Job) {
		job.Status = model.JOB_FAILED
		job.LastError = errMsg
	})
}

func (d jobDao) RetryLater(id uint64, attempts int, fireAt time.Time, errMsg string) error {
	return d.update(id, func(job *model.Job) {
		job.Status = model.JOB_PENDING
		job.Attempts = attempts
		job.FireAt = fireAt
		job.LastError = errMsg
	})
}

func (d jobDao) RequeueRunning() (int, error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var jobs []model.Job
	err = tx.Select(q.Eq("Status", model.JOB_RUNNING)).Find(&jobs)
	if err == storm.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for i := range jobs {
		jobs[i].Status = model.JOB_PENDING
		if err := tx.Update(&jobs[i]); err != nil {
			return 0, err
		}
	}

	return len(jobs), tx.Commit()
}

func (d jobDao) update(id uint64, mutate func(job *model.Job)) error {
	var job model.Job
	if err := d.db.One("Id", id, &job); err != nil {
		if err == storm.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	mutate(&job)
	return d.db.Update(&job)
}
