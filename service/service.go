package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/artemmm11/SMS-reminder/dao"
	"github.com/artemmm11/SMS-reminder/model"
	"github.com/artemmm11/SMS-reminder/ratelimit"
	"github.com/artemmm11/SMS-reminder/scheduler"
	"github.com/artemmm11/SMS-reminder/service/dto"
	"github.com/artemmm11/SMS-reminder/sms"
	"github.com/artemmm11/SMS-reminder/transcribe"
	"github.com/artemmm11/SMS-reminder/util"
	"github.com/cskr/pubsub"
	"go.uber.org/zap"
)

//attempts granted to the scheduler envelope: covers the application retry
//budget plus slack for infrastructure hiccups at delivery time
const schedulerAttempts = model.MaxRetries + 2

type Service interface {
	//ScheduleReminder validates and persists a new reminder for identity,
	//then arms its delivery job
	ScheduleReminder(ctx context.Context, identity string, req dto.ScheduleRequest) (dto.ScheduleResponse, error)
	//ScheduleVoiceReminder transcribes the recording and schedules the
	//transcript as the message body
	ScheduleVoiceReminder(ctx context.Context, identity string, audio []byte, mime string, req dto.ScheduleRequest) (dto.ScheduleResponse, error)
	//DeliverReminder is the scheduler callback: it attempts delivery once and
	//advances the reminder state machine
	DeliverReminder(ctx context.Context, id string) (Outcome, error)
	//CheckStatusOfReminder returns the current state of a reminder
	CheckStatusOfReminder(id string) (dto.ReminderStatus, error)
}

type service struct {
	reminders   dao.ReminderDao
	limiter     ratelimit.Limiter
	sender      sms.Sender
	scheduler   scheduler.Scheduler
	transcriber transcribe.Transcriber

	callbackUrl   string
	messageMaxLen int
	webhook       string
	phoneRx       *regexp.Regexp

	ps         *pubsub.PubSub
	httpClient *http.Client
}

func NewService(reminders dao.ReminderDao, limiter ratelimit.Limiter, sender sms.Sender,
	jobScheduler scheduler.Scheduler, transcriber transcribe.Transcriber,
	callbackUrl string, messageMaxLen int, webhook, phoneMask string) Service {

	service := &service{
		reminders:     reminders,
		limiter:       limiter,
		sender:        sender,
		scheduler:     jobScheduler,
		transcriber:   transcriber,
		callbackUrl:   callbackUrl,
		messageMaxLen: messageMaxLen,
		webhook:       webhook,
		phoneRx:       regexp.MustCompile(phoneMask),
		ps:            pubsub.New(100),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}

	if !util.IsBlank(webhook) {
		go service.notifyWebhook(service.ps.Sub(EVENTS))
	}

	return service
}

func (s *service) ScheduleReminder(ctx context.Context, identity string, req dto.ScheduleRequest) (dto.ScheduleResponse, error) {
	decision := s.limiter.Allow(identity, ratelimit.BucketScheduling)
	if !decision.Allowed {
		return dto.ScheduleResponse{}, &RateLimitErr{RetryAfter: time.Until(decision.ResetAt)}
	}

	phone, fireAt, problems := s.validate(req)
	if len(problems) > 0 {
		return dto.ScheduleResponse{}, NewInvalidPayloadError(problems...)
	}

	reminder, err := s.reminders.Create(phone, strings.TrimSpace(req.Message), fireAt)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	payload, err := json.Marshal(dto.DeliveryCallback{ReminderId: reminder.Id})
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	jobId, err := s.scheduler.Enqueue(ctx, s.callbackUrl, payload, fireAt, schedulerAttempts)
	if err != nil {
		//the row stays behind as an audit trail of the failed attempt
		if _, terr := s.reminders.CompareAndTransition(reminder.Id, model.SCHEDULED, func(r *model.Reminder) {
			r.Status = model.FAILED
			r.LastError = "enqueue failed: " + err.Error()
		}); terr != nil {
			zap.L().Error("could not record scheduling failure",
				zap.String("reminderId", reminder.Id), zap.Error(terr))
		}
		s.publish(reminder.Id, model.FAILED, err.Error())
		return dto.ScheduleResponse{}, NewSchedulingError(err.Error())
	}

	zap.L().Info("reminder scheduled",
		zap.String("reminderId", reminder.Id),
		zap.String("jobId", jobId),
		zap.Time("fireAt", fireAt))
	s.publish(reminder.Id, model.SCHEDULED, "")

	return dto.ScheduleResponse{ReminderId: reminder.Id, ScheduledFor: fireAt.Format(time.RFC3339)}, nil
}

func (s *service) ScheduleVoiceReminder(ctx context.Context, identity string, audio []byte, mime string, req dto.ScheduleRequest) (dto.ScheduleResponse, error) {
	decision := s.limiter.Allow(identity, ratelimit.BucketTranscription)
	if !decision.Allowed {
		return dto.ScheduleResponse{}, &RateLimitErr{RetryAfter: time.Until(decision.ResetAt)}
	}

	if len(audio) == 0 {
		return dto.ScheduleResponse{}, NewInvalidPayloadError("audio recording is empty")
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mime)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	req.Message = text
	return s.ScheduleReminder(ctx, identity, req)
}

func (s *service) CheckStatusOfReminder(id string) (dto.ReminderStatus, error) {
	reminder, err := s.reminders.GetOneById(id)
	if err != nil {
		return dto.ReminderStatus{}, err
	}

	status := dto.ReminderStatus{
		ReminderId:       reminder.Id,
		Recipient:        reminder.Recipient,
		Status:           reminder.Status,
		FireAt:           reminder.FireAt.Format(time.RFC3339),
		RetryCount:       reminder.RetryCount,
		LastError:        reminder.LastError,
		ChannelMessageId: reminder.ChannelMessageId,
	}
	if reminder.SentAt != nil {
		status.SentAt = reminder.SentAt.Format(time.RFC3339)
	}

	return status, nil
}

func (s *service) validate(req dto.ScheduleRequest) (string, time.Time, []string) {
	var problems []string

	if !req.Consent {
		problems = append(problems, "explicit consent is required")
	}

	phone := normalizePhone(req.Recipient)
	if !s.phoneRx.MatchString(phone) {
		problems = append(problems, "invalid recipient "+req.Recipient)
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		problems = append(problems, "message must not be empty")
	} else if len([]rune(body)) > s.messageMaxLen {
		problems = append(problems, "message too long, must be <= "+strconv.Itoa(s.messageMaxLen)+" symbols")
	}

	fireAt, err := parseFireAt(req.FireAt, req.Timezone)
	if err != nil {
		problems = append(problems, "invalid fireAt: "+err.Error())
	} else {
		now := time.Now()
		if !fireAt.After(now) {
			problems = append(problems, "fireAt must be in the future")
		} else if fireAt.After(now.Add(model.MaxHorizon)) {
			problems = append(problems, "fireAt too far in advance, must be within one year")
		}
	}

	return phone, fireAt, problems
}

//normalizePhone strips common separators; the result is matched against the
//configured mask and stored as-is, never re-normalized later
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseFireAt(value, timezone string) (time.Time, error) {
	if util.IsBlank(value) {
		return time.Time{}, errors.New("required")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	//no offset in the timestamp, interpret it in the caller timezone
	loc := time.UTC
	if !util.IsBlank(timezone) {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, errors.New("unknown timezone " + timezone)
		}
		loc = l
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		return time.Time{}, errors.New("must be an ISO-8601 timestamp")
	}
	return t, nil
}
