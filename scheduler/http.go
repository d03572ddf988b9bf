package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	ForwardToHeader    = "X-Forward-To"
	DelaySecondsHeader = "X-Delay-Seconds"
	RetriesHeader      = "X-Retries"
)

type httpScheduler struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

//NewHttpScheduler builds the client of a remote delayed-job service that
//POSTs the payload to the target endpoint at fire time.
func NewHttpScheduler(baseUrl, token string, timeout time.Duration) Scheduler {
	return &httpScheduler{
		baseUrl:    baseUrl,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *httpScheduler) Enqueue(ctx context.Context, target string, payload []byte, fireAt time.Time, maxAttempts int) (string, error) {
	delay := time.Until(fireAt)
	if delay < 0 {
		delay = 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseUrl, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set(ForwardToHeader, target)
	req.Header.Set(DelaySecondsHeader, strconv.Itoa(int(delay.Seconds())))
	req.Header.Set(RetriesHeader, strconv.Itoa(maxAttempts))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("scheduler rejected job: %s", resp.Status)
	}

	var reply struct {
		JobId string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("malformed scheduler reply: %v", err)
	}

	return reply.JobId, nil
}
