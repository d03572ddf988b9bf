package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artemmm11/SMS-reminder/dao"
	"github.com/artemmm11/SMS-reminder/model"
	"github.com/artemmm11/SMS-reminder/ratelimit"
	"github.com/artemmm11/SMS-reminder/service/dto"
	"github.com/cskr/pubsub"
	"github.com/dchest/uniuri"
	"github.com/stretchr/testify/require"
)

const (
	IDENTITY    = "client-1"
	PHONE       = "+15551234567"
	TEXT        = "Call mom"
	MSG_MAX_LEN = 300
	PHONE_MASK  = `^\+[1-9]\d{7,14}$`
	CALLBACK    = "http://localhost:8080/callbacks/delivery"
)

//memReminderDao mirrors the store semantics: the mutate closure of a
//compare-and-transition runs under the record lock
type memReminderDao struct {
	mu        sync.Mutex
	reminders map[string]model.Reminder
	createErr error
}

func newMemReminderDao() *memReminderDao {
	return &memReminderDao{reminders: map[string]model.Reminder{}}
}

func (d *memReminderDao) Create(recipient, body string, fireAt time.Time) (model.Reminder, error) {
	if d.createErr != nil {
		return model.Reminder{}, d.createErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	reminder := model.Reminder{
		Id:        uniuri.NewLen(20),
		Recipient: recipient,
		Body:      body,
		FireAt:    fireAt,
		Status:    model.SCHEDULED,
		CreatedAt: time.Now(),
	}
	d.reminders[reminder.Id] = reminder
	return reminder, nil
}

func (d *memReminderDao) GetOneById(id string) (model.Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reminder, ok := d.reminders[id]
	if !ok {
		return model.Reminder{}, dao.ErrNotFound
	}
	return reminder, nil
}

func (d *memReminderDao) CompareAndTransition(id, expectedStatus string, mutate func(r *model.Reminder)) (model.Reminder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reminder, ok := d.reminders[id]
	if !ok {
		return model.Reminder{}, dao.ErrNotFound
	}
	if reminder.Status != expectedStatus {
		return reminder, dao.ErrStaleState
	}
	mutate(&reminder)
	d.reminders[id] = reminder
	return reminder, nil
}

func (d *memReminderDao) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reminders)
}

func (d *memReminderDao) only(t *testing.T) model.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Equal(t, 1, len(d.reminders))
	for _, r := range d.reminders {
		return r
	}
	return model.Reminder{}
}

type mockLimiter struct {
	denied  map[string]bool
	buckets []string
}

func (m *mockLimiter) Allow(identity, bucket string) ratelimit.Decision {
	m.buckets = append(m.buckets, bucket)
	if m.denied[bucket] {
		return ratelimit.Decision{Allowed: false, ResetAt: time.Now().Add(30 * time.Minute)}
	}
	return ratelimit.Decision{Allowed: true, Remaining: 9, ResetAt: time.Now().Add(time.Hour)}
}

type mockScheduler struct {
	err     error
	calls   int
	target  string
	payload []byte
	fireAt  time.Time
}

func (m *mockScheduler) Enqueue(ctx context.Context, target string, payload []byte, fireAt time.Time, maxAttempts int) (string, error) {
	m.calls++
	m.target = target
	m.payload = payload
	m.fireAt = fireAt
	if m.err != nil {
		return "", m.err
	}
	return "j-1", nil
}

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	return m.text, m.err
}

func newTestService(reminders dao.ReminderDao, limiter ratelimit.Limiter, sender *mockSender,
	jobScheduler *mockScheduler, transcriber *mockTranscriber) *service {

	return &service{
		reminders:     reminders,
		limiter:       limiter,
		sender:        sender,
		scheduler:     jobScheduler,
		transcriber:   transcriber,
		callbackUrl:   CALLBACK,
		messageMaxLen: MSG_MAX_LEN,
		phoneRx:       regexp.MustCompile(PHONE_MASK),
		ps:            pubsub.New(100),
	}
}

func validRequest(fireAt time.Time) dto.ScheduleRequest {
	return dto.ScheduleRequest{
		Recipient: PHONE,
		Message:   TEXT,
		FireAt:    fireAt.Format(time.RFC3339),
		Consent:   true,
	}
}

func TestService_ScheduleReminder(t *testing.T) {
	reminders := newMemReminderDao()
	jobScheduler := &mockScheduler{}
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, jobScheduler, &mockTranscriber{})

	fireAt := time.Now().Add(time.Hour).Truncate(time.Second)
	resp, err := srv.ScheduleReminder(context.Background(), IDENTITY, validRequest(fireAt))

	require.NoError(t, err)
	require.NotEmpty(t, resp.ReminderId)
	require.Equal(t, fireAt.Format(time.RFC3339), resp.ScheduledFor)

	stored := reminders.only(t)
	require.Equal(t, model.SCHEDULED, stored.Status)
	require.Equal(t, PHONE, stored.Recipient)
	require.Equal(t, TEXT, stored.Body)

	require.Equal(t, 1, jobScheduler.calls)
	require.Equal(t, CALLBACK, jobScheduler.target)
	require.Contains(t, string(jobScheduler.payload), resp.ReminderId)
	require.True(t, jobScheduler.fireAt.Equal(fireAt))
}

func TestService_ScheduleReminderNormalizesPhone(t *testing.T) {
	reminders := newMemReminderDao()
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, &mockScheduler{}, &mockTranscriber{})

	req := validRequest(time.Now().Add(time.Hour))
	req.Recipient = "+1 (555) 123-4567"
	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, req)

	require.NoError(t, err)
	require.Equal(t, PHONE, reminders.only(t).Recipient)
}

func TestService_ScheduleReminderPastFireTime(t *testing.T) {
	reminders := newMemReminderDao()
	jobScheduler := &mockScheduler{}
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, jobScheduler, &mockTranscriber{})

	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, validRequest(time.Now().Add(-time.Minute)))

	require.Error(t, err)
	payloadErr := err.(*InvalidPayloadErr)
	require.Contains(t, payloadErr.Error(), "must be in the future")

	//rejected input leaves no trace: no row, no job
	require.Equal(t, 0, reminders.count())
	require.Equal(t, 0, jobScheduler.calls)
}

func TestService_ScheduleReminderBeyondHorizon(t *testing.T) {
	reminders := newMemReminderDao()
	jobScheduler := &mockScheduler{}
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, jobScheduler, &mockTranscriber{})

	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, validRequest(time.Now().Add(model.MaxHorizon+24*time.Hour)))

	require.Error(t, err)
	require.Contains(t, err.Error(), "too far in advance")
	require.Equal(t, 0, reminders.count())
	require.Equal(t, 0, jobScheduler.calls)
}

func TestService_ScheduleReminderCollectsAllProblems(t *testing.T) {
	srv := newTestService(newMemReminderDao(), &mockLimiter{}, &mockSender{}, &mockScheduler{}, &mockTranscriber{})

	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, dto.ScheduleRequest{
		Recipient: "12345",
		Message:   strings.Repeat("x", MSG_MAX_LEN+1),
		FireAt:    "not-a-timestamp",
		Consent:   false,
	})

	require.Error(t, err)
	problems := err.(*InvalidPayloadErr).Problems()
	require.Len(t, problems, 4)
}

func TestService_ScheduleReminderRateLimited(t *testing.T) {
	reminders := newMemReminderDao()
	limiter := &mockLimiter{denied: map[string]bool{ratelimit.BucketScheduling: true}}
	srv := newTestService(reminders, limiter, &mockSender{}, &mockScheduler{}, &mockTranscriber{})

	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, validRequest(time.Now().Add(time.Hour)))

	require.Error(t, err)
	rateErr := err.(*RateLimitErr)
	require.True(t, rateErr.RetryAfter > 0)
	require.Equal(t, 0, reminders.count())
}

func TestService_ScheduleReminderEnqueueFails(t *testing.T) {
	reminders := newMemReminderDao()
	jobScheduler := &mockScheduler{err: errors.New("scheduler unreachable")}
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, jobScheduler, &mockTranscriber{})

	_, err := srv.ScheduleReminder(context.Background(), IDENTITY, validRequest(time.Now().Add(time.Hour)))

	require.Error(t, err)
	require.IsType(t, &SchedulingErr{}, err)

	//the reminder row survives as an audit trail of the failed attempt
	stored := reminders.only(t)
	require.Equal(t, model.FAILED, stored.Status)
	require.Contains(t, stored.LastError, "scheduler unreachable")
}

func TestService_ScheduleVoiceReminder(t *testing.T) {
	reminders := newMemReminderDao()
	limiter := &mockLimiter{}
	srv := newTestService(reminders, limiter, &mockSender{}, &mockScheduler{}, &mockTranscriber{text: "Pick up the kids"})

	req := validRequest(time.Now().Add(time.Hour))
	req.Message = ""
	resp, err := srv.ScheduleVoiceReminder(context.Background(), IDENTITY, []byte("audio-bytes"), "audio/ogg", req)

	require.NoError(t, err)
	require.NotEmpty(t, resp.ReminderId)
	require.Equal(t, "Pick up the kids", reminders.only(t).Body)

	//transcription and scheduling are metered independently
	require.Equal(t, []string{ratelimit.BucketTranscription, ratelimit.BucketScheduling}, limiter.buckets)
}

func TestService_ScheduleVoiceReminderTranscriptionFails(t *testing.T) {
	reminders := newMemReminderDao()
	transcriber := &mockTranscriber{err: errors.New("unintelligible audio")}
	jobScheduler := &mockScheduler{}
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, jobScheduler, transcriber)

	_, err := srv.ScheduleVoiceReminder(context.Background(), IDENTITY, []byte("audio-bytes"), "audio/ogg", validRequest(time.Now().Add(time.Hour)))

	require.Error(t, err)
	require.Equal(t, 0, reminders.count())
	require.Equal(t, 0, jobScheduler.calls)
}

func TestService_ScheduleVoiceReminderEmptyAudio(t *testing.T) {
	srv := newTestService(newMemReminderDao(), &mockLimiter{}, &mockSender{}, &mockScheduler{}, &mockTranscriber{})

	_, err := srv.ScheduleVoiceReminder(context.Background(), IDENTITY, nil, "audio/ogg", validRequest(time.Now().Add(time.Hour)))

	require.Error(t, err)
	require.IsType(t, &InvalidPayloadErr{}, err)
}

func TestService_CheckStatusOfReminder(t *testing.T) {
	reminders := newMemReminderDao()
	srv := newTestService(reminders, &mockLimiter{}, &mockSender{}, &mockScheduler{}, &mockTranscriber{})

	created, err := reminders.Create(PHONE, TEXT, time.Now().Add(time.Hour))
	require.NoError(t, err)

	status, err := srv.CheckStatusOfReminder(created.Id)

	require.NoError(t, err)
	require.Equal(t, created.Id, status.ReminderId)
	require.Equal(t, model.SCHEDULED, status.Status)
	require.Empty(t, status.SentAt)

	_, err = srv.CheckStatusOfReminder("no-such-id")
	require.Equal(t, dao.ErrNotFound, err)
}
