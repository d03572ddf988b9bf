package dao

import (
	"time"

	"github.com/artemmm11/SMS-reminder/model"
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/index"
	"github.com/asdine/storm/v3/q"
	bolt "go.etcd.io/bbolt"
)

type Db interface {
	Init(data interface{}) error
	One(fieldName string, value interface{}, to interface{}) error
	Update(data interface{}) error
	Save(data interface{}) error
	DeleteStruct(data interface{}) error
	Select(matchers ...q.Matcher) storm.Query
	Find(fieldName string, value interface{}, to interface{}, options ...func(q *index.Options)) error
	All(to interface{}, options ...func(*index.Options)) error
	Begin(writable bool) (storm.Node, error)
	Close() error
}

//Open opens the db file and prepares buckets for all known models.
//The client is constructed once at startup and handed to the daos explicitly.
func Open(dbFilePath string) (Db, error) {
	db, err := storm.Open(dbFilePath, storm.BoltOptions(0600, &bolt.Options{Timeout: 10 * time.Second, ReadOnly: false}))
	if err != nil {
		return nil, err
	}

	for _, m := range []interface{}{&model.Reminder{}, &model.Job{}, &model.Window{}} {
		if err := db.Init(m); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}
