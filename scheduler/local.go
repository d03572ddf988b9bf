package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/artemmm11/SMS-reminder/dao"
	"github.com/artemmm11/SMS-reminder/model"
	"github.com/artemmm11/SMS-reminder/util"
	"go.uber.org/zap"
)

//LocalScheduler is the embedded fallback used when no remote scheduler is
//configured. Jobs are persisted in the service db and fired by a polling
//loop that POSTs the payload to the target endpoint, retrying failed
//callbacks with exponential backoff until the attempt budget is spent.
//Delivery is at least once: a crash between the callback and MarkDone
//re-fires the job on restart.
type LocalScheduler struct {
	jobs       dao.JobDao
	secret     string
	httpClient *http.Client
	pollEvery  time.Duration
}

func NewLocalScheduler(jobs dao.JobDao, secret string, timeout time.Duration) *LocalScheduler {
	return &LocalScheduler{
		jobs:       jobs,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		pollEvery:  time.Second,
	}
}

func (s *LocalScheduler) Enqueue(ctx context.Context, target string, payload []byte, fireAt time.Time, maxAttempts int) (string, error) {
	id, err := s.jobs.Create(reminderIdOf(payload), target, payload, fireAt, maxAttempts)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}

//reminderIdOf pulls the reminder id out of the callback payload so jobs can
//be traced back to the reminder they fire
func reminderIdOf(payload []byte) string {
	var p struct {
		ReminderId string `json:"reminderId"`
	}
	_ = json.Unmarshal(payload, &p)
	return p.ReminderId
}

//Run drives the polling loop until ctx is cancelled. It first returns jobs
//stranded in RUNNING by a previous process to the pending queue; the callback
//target is idempotent, so re-firing an interrupted job is safe.
func (s *LocalScheduler) Run(ctx context.Context) {
	if n, err := s.jobs.RequeueRunning(); err != nil {
		zap.L().Warn("could not requeue interrupted jobs", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("requeued interrupted jobs", zap.Int("count", n))
	}

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				job, err := s.jobs.ClaimDue(time.Now())
				if err != nil {
					zap.L().Warn("job claim failed", zap.Error(err))
					break
				}
				if job == nil {
					break
				}
				s.fire(job)
			}
		}
	}
}

func (s *LocalScheduler) fire(job *model.Job) {
	err := s.post(job)
	if err == nil {
		if err := s.jobs.MarkDone(job.Id); err != nil {
			zap.L().Error("job could not be marked done", zap.Uint64("jobId", job.Id), zap.Error(err))
		}
		return
	}

	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		zap.L().Error("job failed, attempts spent",
			zap.Uint64("jobId", job.Id),
			zap.Int("attempts", attempts),
			zap.Error(err))
		if err := s.jobs.MarkFailed(job.Id, err.Error()); err != nil {
			zap.L().Error("job could not be marked failed", zap.Uint64("jobId", job.Id), zap.Error(err))
		}
		return
	}

	//exponential backoff capped at ten minutes
	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	zap.L().Warn("job callback failed, will retry",
		zap.Uint64("jobId", job.Id),
		zap.Int("attempts", attempts),
		zap.Time("nextFireAt", next),
		zap.Error(err))

	if err := s.jobs.RetryLater(job.Id, attempts, next, err.Error()); err != nil {
		zap.L().Error("job could not be rescheduled", zap.Uint64("jobId", job.Id), zap.Error(err))
	}
}

func (s *LocalScheduler) post(job *model.Job) error {
	req, err := http.NewRequest(http.MethodPost, job.Target, bytes.NewReader(job.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if !util.IsBlank(s.secret) {
		req.Header.Set(util.SignatureHeader, util.SignPayload(s.secret, job.Payload))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned %s", resp.Status)
	}

	return nil
}
