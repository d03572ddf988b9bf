package model

import "time"

//Window holds the hit timestamps of one rate limit window,
//keyed by "bucket:identity"
type Window struct {
	Key  string `storm:"id"`
	Hits []time.Time
}
