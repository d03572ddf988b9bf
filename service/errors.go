package service

import (
	"fmt"
	"strings"
	"time"
)

//InvalidPayloadErr collects every failed field check of one submission
type InvalidPayloadErr struct {
	problems []string
}

func (e *InvalidPayloadErr) Error() string {
	return strings.Join(e.problems, "; ")
}

func (e *InvalidPayloadErr) Problems() []string {
	return e.problems
}

func NewInvalidPayloadError(problems ...string) *InvalidPayloadErr {
	return &InvalidPayloadErr{problems: problems}
}

//RateLimitErr tells the caller to come back after RetryAfter
type RateLimitErr struct {
	RetryAfter time.Duration
}

func (e *RateLimitErr) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

//SchedulingErr means the reminder was persisted but could not be armed
type SchedulingErr struct {
	message string
}

func (e *SchedulingErr) Error() string {
	return e.message
}

func NewSchedulingError(msg string) *SchedulingErr {
	return &SchedulingErr{message: msg}
}
