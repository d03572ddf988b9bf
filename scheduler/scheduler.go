package scheduler

import (
	"context"
	"time"
)

//Scheduler arranges for payload to be POSTed to target at fireAt.
//Implementations own an at-least-once retry envelope with up to maxAttempts
//invocations, so the target must tolerate duplicate calls.
type Scheduler interface {
	Enqueue(ctx context.Context, target string, payload []byte, fireAt time.Time, maxAttempts int) (string, error)
}
