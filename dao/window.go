package dao

import (
	"time"

	"github.com/artemmm11/SMS-reminder/model"
	"github.com/asdine/storm/v3"
)

type WindowDao interface {
	//TakeSlot atomically records a hit for (bucket, identity) and reports
	//whether it fits within limit hits per rolling window. remaining is the
	//number of slots left after this call, resetAt is when the oldest recorded
	//hit slides out of the window.
	TakeSlot(bucket, identity string, limit int, window time.Duration, now time.Time) (allowed bool, remaining int, resetAt time.Time, err error)
}

func NewWindowDao(db Db) WindowDao {
	return &windowDao{db: db}
}

type windowDao struct {
	db Db
}

func (d windowDao) TakeSlot(bucket, identity string, limit int, window time.Duration, now time.Time) (bool, int, time.Time, error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	defer tx.Rollback()

	key := bucket + ":" + identity
	var win model.Window
	if err := tx.One("Key", key, &win); err != nil && err != storm.ErrNotFound {
		return false, 0, time.Time{}, err
	}
	win.Key = key

	//drop hits that slid out of the window
	cutoff := now.Add(-window)
	fresh := win.Hits[:0]
	for _, hit := range win.Hits {
		if hit.After(cutoff) {
			fresh = append(fresh, hit)
		}
	}
	win.Hits = fresh

	if len(win.Hits) >= limit {
		//limit <= 0 denies everything, there is no oldest hit to expire then
		resetAt := now.Add(window)
		if len(win.Hits) > 0 {
			resetAt = win.Hits[0].Add(window)
		}
		return false, 0, resetAt, tx.Commit()
	}

	win.Hits = append(win.Hits, now)
	if err := tx.Save(&win); err != nil {
		return false, 0, time.Time{}, err
	}

	return true, limit - len(win.Hits), win.Hits[0].Add(window), tx.Commit()
}
