package dao

import (
	"errors"
	"time"

	"github.com/artemmm11/SMS-reminder/model"
	"github.com/asdine/storm/v3"
	"github.com/dchest/uniuri"
)

var (
	//ErrNotFound is returned when no record exists with the given id
	ErrNotFound = errors.New("not found")
	//ErrStaleState is returned when a compare-and-transition observes a status
	//other than the expected one
	ErrStaleState = errors.New("stale state")
)

type ReminderDao interface {
	//Create persists a new reminder in SCHEDULED state and returns it
	Create(recipient, body string, fireAt time.Time) (model.Reminder, error)
	//GetOneById returns reminder by id
	GetOneById(id string) (model.Reminder, error)
	//CompareAndTransition applies mutate to the reminder only if its current
	//status equals expectedStatus. This is the single mutation path after
	//creation. mutate runs inside the store's write transaction, so concurrent
	//transitions on the same id serialize and at most one of them observes the
	//expected status. On ErrStaleState the observed record is returned so the
	//caller can resolve against the state that won the race.
	CompareAndTransition(id, expectedStatus string, mutate func(r *model.Reminder)) (model.Reminder, error)
}

func NewReminderDao(db Db) ReminderDao {
	return &reminderDao{db: db}
}

type reminderDao struct {
	db Db
}

func (d reminderDao) Create(recipient, body string, fireAt time.Time) (model.Reminder, error) {
	reminder := model.Reminder{
		Id:        uniuri.NewLen(20),
		Recipient: recipient,
		Body:      body,
		FireAt:    fireAt,
		Status:    model.SCHEDULED,
		CreatedAt: time.Now(),
	}
	err := d.db.Save(&reminder)
	return reminder, err
}

func (d reminderDao) GetOneById(id string) (model.Reminder, error) {
	var reminder model.Reminder
	err := d.db.One("Id", id, &reminder)
	if err == storm.ErrNotFound {
		return reminder, ErrNotFound
	}
	return reminder, err
}

func (d reminderDao) CompareAndTransition(id, expectedStatus string, mutate func(r *model.Reminder)) (model.Reminder, error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return model.Reminder{}, err
	}
	defer tx.Rollback()

	var reminder model.Reminder
	if err := tx.One("Id", id, &reminder); err != nil {
		if err == storm.ErrNotFound {
			return model.Reminder{}, ErrNotFound
		}
		return model.Reminder{}, err
	}

	if reminder.Status != expectedStatus {
		return reminder, ErrStaleState
	}

	mutate(&reminder)

	if err := tx.Update(&reminder); err != nil {
		return model.Reminder{}, err
	}

	return reminder, tx.Commit()
}
