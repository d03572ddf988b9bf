package service

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/artemmm11/SMS-reminder/service/dto"
	"go.uber.org/zap"
)

const (
	EVENTS = "events"
)

func (s *service) publish(id, status, errMsg string) {
	s.ps.Pub(dto.StatusEvent{ReminderId: id, Status: status, Error: errMsg}, EVENTS)
}

//notifyWebhook forwards reminder state changes to the configured webhook
func (s *service) notifyWebhook(events chan interface{}) {
	for val := range events {
		event := val.(dto.StatusEvent)

		body, err := json.Marshal(event)
		if err != nil {
			zap.L().Error("error marshalling status event", zap.Error(err))
			continue
		}

		req, err := http.NewRequest(http.MethodPost, s.webhook, bytes.NewBuffer(body))
		if err != nil {
			zap.L().Error("error calling web hook", zap.Error(err))
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			zap.L().Error("error calling web hook", zap.Error(err))
			continue
		}
		resp.Body.Close()

		if !(resp.StatusCode >= 200 && resp.StatusCode <= 202) {
			zap.L().Warn("webhook returned unexpected status", zap.String("status", resp.Status))
		}
	}
}
