package service

import (
	"context"
	"time"

	"github.com/artemmm11/SMS-reminder/dao"
	"github.com/artemmm11/SMS-reminder/model"
	"github.com/artemmm11/SMS-reminder/sms"
	"go.uber.org/zap"
)

//Outcome tells the scheduler callback how to answer: retry the invocation or
//acknowledge it as finished
type Outcome int

const (
	//OutcomeSent means the message went out during this invocation
	OutcomeSent Outcome = iota
	//OutcomeAlreadyHandled means a previous invocation finished this reminder
	OutcomeAlreadyHandled
	//OutcomeRetry asks the scheduler envelope to invoke the worker again
	OutcomeRetry
	//OutcomeFailed means the reminder reached FAILED and must not be retried
	OutcomeFailed
)

//DeliverReminder runs one delivery attempt. The whole attempt happens inside
//the store's compare-and-transition, so concurrent duplicate invocations for
//the same id serialize on the record: only one of them observes SCHEDULED and
//calls the channel, the rest resolve against the state it committed.
func (s *service) DeliverReminder(ctx context.Context, id string) (Outcome, error) {
	var (
		outcome Outcome
		failure string
	)

	updated, err := s.reminders.CompareAndTransition(id, model.SCHEDULED, func(r *model.Reminder) {
		messageId, sendErr := s.sender.Send(ctx, r.Recipient, r.Body)
		if sendErr == nil {
			now := time.Now()
			r.Status = model.SENT
			r.ChannelMessageId = messageId
			r.SentAt = &now
			outcome = OutcomeSent
			return
		}

		retryable := false
		if se, ok := sendErr.(*sms.SendError); ok {
			retryable = se.Retryable
		}

		r.RetryCount++
		r.LastError = sendErr.Error()
		failure = sendErr.Error()

		if retryable && r.RetryCount < model.MaxRetries {
			//stay SCHEDULED, the scheduler envelope re-invokes us later
			outcome = OutcomeRetry
			return
		}

		r.Status = model.FAILED
		outcome = OutcomeFailed
	})

	if err == dao.ErrStaleState {
		//duplicate invocation from the at-least-once scheduler
		if updated.Status == model.FAILED {
			return OutcomeFailed, nil
		}
		return OutcomeAlreadyHandled, nil
	}
	if err != nil {
		return 0, err
	}

	switch outcome {
	case OutcomeSent:
		zap.L().Info("reminder sent",
			zap.String("reminderId", id),
			zap.String("channelMessageId", updated.ChannelMessageId))
		s.publish(id, model.SENT, "")
	case OutcomeRetry:
		zap.L().Warn("delivery attempt failed, awaiting retry",
			zap.String("reminderId", id),
			zap.Int("retryCount", updated.RetryCount),
			zap.String("error", failure))
	case OutcomeFailed:
		zap.L().Error("reminder failed",
			zap.String("reminderId", id),
			zap.Int("retryCount", updated.RetryCount),
			zap.String("error", failure))
		s.publish(id, model.FAILED, failure)
	}

	return outcome, nil
}
