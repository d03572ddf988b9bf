package sms

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type client struct {
	baseUrl string
	account string
	token   string
	from    string
	enabled bool

	httpClient *http.Client
	throttle   *rate.Limiter
}

//NewClient builds the rest client of the sms provider. With enabled=false the
//client never touches the network and reports a deterministic synthetic
//accept, so the pipeline can be exercised without external side effects.
func NewClient(baseUrl, account, token, from string, enabled bool, tps int, timeout time.Duration) Sender {
	return &client{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		account:    account,
		token:      token,
		from:       from,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: timeout},
		throttle:   rate.NewLimiter(rate.Limit(tps), 1),
	}
}

func (c *client) Send(ctx context.Context, phone, body string) (string, error) {
	if !c.enabled {
		sum := sha256.Sum256([]byte(phone + "|" + body))
		id := "SM" + hex.EncodeToString(sum[:16])
		zap.L().Info("sms channel disabled, simulating accept",
			zap.String("phone", phone),
			zap.String("channelMessageId", id))
		return id, nil
	}

	//impose tps limit
	if err := c.throttle.Wait(ctx); err != nil {
		return "", &SendError{Message: err.Error(), Retryable: true}
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", c.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseUrl+"/Accounts/"+c.account+"/Messages.json",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &SendError{Message: err.Error(), Retryable: false}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.account, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		//transport errors and timeouts may resolve on a later attempt
		return "", &SendError{Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	var reply struct {
		Sid     string `json:"sid"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", &SendError{Message: "malformed provider reply: " + err.Error(), Retryable: true}
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return reply.Sid, nil
	}

	return "", &SendError{
		Code:      reply.Code,
		Message:   reply.Message,
		Retryable: retryableCodes[reply.Code] || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
	}
}
