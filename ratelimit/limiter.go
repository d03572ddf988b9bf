package ratelimit

import (
	"time"

	"github.com/artemmm11/SMS-reminder/dao"
	"go.uber.org/zap"
)

const (
	//BucketScheduling meters reminder intake
	BucketScheduling = "scheduling"
	//BucketTranscription meters speech-to-text calls
	BucketTranscription = "transcription"
)

type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	//Allow reports whether identity may perform one more action in bucket
	Allow(identity, bucket string) Decision
}

//NewLimiter builds a sliding window limiter of limit actions per rolling
//window, backed by the shared window store. When failOpen is set the limiter
//admits traffic while the store is unreachable, trading strictness for
//availability.
func NewLimiter(windows dao.WindowDao, limit int, window time.Duration, failOpen bool) Limiter {
	return &limiter{windows: windows, limit: limit, window: window, failOpen: failOpen}
}

type limiter struct {
	windows  dao.WindowDao
	limit    int
	window   time.Duration
	failOpen bool
}

func (l *limiter) Allow(identity, bucket string) Decision {
	now := time.Now()

	allowed, remaining, resetAt, err := l.windows.TakeSlot(bucket, identity, l.limit, l.window, now)
	if err != nil {
		zap.L().Warn("rate limit store unavailable",
			zap.String("bucket", bucket),
			zap.Bool("failOpen", l.failOpen),
			zap.Error(err))
		return Decision{Allowed: l.failOpen, Remaining: 0, ResetAt: now.Add(l.window)}
	}

	return Decision{Allowed: allowed, Remaining: remaining, ResetAt: resetAt}
}
