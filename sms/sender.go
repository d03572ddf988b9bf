package sms

import (
	"context"
	"fmt"
)

//Sender delivers one message through the external sms channel.
type Sender interface {
	//Send submits body to phone and returns the channel message id once the
	//provider accepts the message. Failures come back as *SendError with
	//retryability classified against the transient allow-list.
	Send(ctx context.Context, phone, body string) (string, error)
}

type SendError struct {
	Code      int
	Message   string
	Retryable bool
}

func (e *SendError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

//provider codes considered transient: rate limiting, queue overflow and
//temporary unreachability. Everything else is terminal.
var retryableCodes = map[int]bool{
	20429: true, //too many requests
	20503: true, //service temporarily unavailable
	30001: true, //message queue overflow
	30003: true, //destination handset unreachable
}
