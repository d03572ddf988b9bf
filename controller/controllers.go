package controller

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/artemmm11/SMS-reminder/dao"
	"github.com/artemmm11/SMS-reminder/service"
	"github.com/artemmm11/SMS-reminder/service/dto"
	"github.com/artemmm11/SMS-reminder/transcribe"
	"github.com/artemmm11/SMS-reminder/util"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ScheduleReminder godoc
// @Summary Schedule reminder
// @Description Schedules a one-shot sms reminder for a future instant
// @Accept json
// @Produce json
// @Param reminder body dto.ScheduleRequest true "Reminder"
// @Success 200 {object} dto.ScheduleResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /reminders [post]
func GetScheduleReminderFunc(srv service.Service) echo.HandlerFunc {

	return func(c echo.Context) error {
		req := new(dto.ScheduleRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		resp, err := srv.ScheduleReminder(c.Request().Context(), clientIdentity(c), *req)
		if err != nil {
			return writeScheduleError(c, err)
		}

		return c.JSON(http.StatusOK, resp)
	}
}

// ScheduleVoiceReminder godoc
// @Summary Schedule reminder by voice
// @Description Transcribes the uploaded recording and schedules the transcript as an sms reminder
// @Accept mpfd
// @Produce json
// @Param audio formData file true "Voice recording"
// @Param recipient formData string true "Recipient phone"
// @Param fireAt formData string true "Fire time, ISO-8601"
// @Param timezone formData string false "Caller timezone"
// @Param consent formData bool true "Explicit consent"
// @Success 200 {object} dto.ScheduleResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /reminders/voice [post]
func GetScheduleVoiceReminderFunc(srv service.Service) echo.HandlerFunc {

	return func(c echo.Context) error {
		file, err := c.FormFile("audio")
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{"audio recording is required"}})
		}

		src, err := file.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		audio, err := io.ReadAll(src)
		if err != nil {
			return err
		}

		req := dto.ScheduleRequest{
			Recipient: c.FormValue("recipient"),
			FireAt:    c.FormValue("fireAt"),
			Timezone:  c.FormValue("timezone"),
			Consent:   c.FormValue("consent") == "true",
		}

		resp, err := srv.ScheduleVoiceReminder(c.Request().Context(), clientIdentity(c), audio, file.Header.Get("Content-Type"), req)
		if err != nil {
			return writeScheduleError(c, err)
		}

		return c.JSON(http.StatusOK, resp)
	}
}

// CheckReminder godoc
// @Summary Check reminder
// @Description Returns the current state of a reminder
// @Produce json
// @Param id path string true "Reminder id"
// @Success 200 {object} dto.ReminderStatus
// @Failure 404 "error description"
// @Router /reminders/{id} [get]
func GetCheckReminderFunc(srv service.Service) echo.HandlerFunc {

	return func(c echo.Context) error {
		id := c.Param("id")

		status, err := srv.CheckStatusOfReminder(id)
		if err != nil {
			if err == dao.ErrNotFound {
				return c.String(http.StatusNotFound, "Reminder not found "+id)
			}
			zap.L().Error("error checking reminder", zap.String("reminderId", id), zap.Error(err))
			return c.String(http.StatusInternalServerError, "System malfunction. Please, try later")
		}

		return c.JSON(http.StatusOK, status)
	}
}

// DeliveryCallback godoc
// @Summary Delivery callback
// @Description Invoked by the job scheduler at fire time; a non-2xx answer asks the scheduler to retry
// @Accept json
// @Produce json
// @Param callback body dto.DeliveryCallback true "Callback"
// @Success 200 {object} dto.CallbackAck
// @Failure 401 "invalid signature"
// @Failure 404 "unknown reminder"
// @Failure 500 "retry requested"
// @Router /callbacks/delivery [post]
func GetDeliveryCallbackFunc(srv service.Service, secret string) echo.HandlerFunc {

	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}

		//with no secret configured the callback runs unauthenticated, an
		//accepted trust boundary for constrained deployments
		if !util.IsBlank(secret) {
			signature := c.Request().Header.Get(util.SignatureHeader)
			if !util.VerifySignature(secret, body, signature) {
				return c.String(http.StatusUnauthorized, "Invalid callback signature")
			}
		}

		payload := new(dto.DeliveryCallback)
		if err := json.Unmarshal(body, payload); err != nil || util.IsBlank(payload.ReminderId) {
			return c.String(http.StatusBadRequest, "Invalid callback payload")
		}

		outcome, err := srv.DeliverReminder(c.Request().Context(), payload.ReminderId)
		if err != nil {
			if err == dao.ErrNotFound {
				return c.String(http.StatusNotFound, "Reminder not found "+payload.ReminderId)
			}
			//state was not advanced, let the scheduler envelope try again
			zap.L().Error("delivery callback failed", zap.String("reminderId", payload.ReminderId), zap.Error(err))
			return c.String(http.StatusInternalServerError, "Delivery attempt failed. Please, retry")
		}

		switch outcome {
		case service.OutcomeRetry:
			//non-2xx tells the scheduler to invoke us again
			return c.String(http.StatusInternalServerError, "Transient delivery failure. Please, retry")
		case service.OutcomeAlreadyHandled:
			return c.JSON(http.StatusOK, dto.CallbackAck{ReminderId: payload.ReminderId, Result: "already handled"})
		case service.OutcomeFailed:
			//2xx on purpose, the scheduler must not retry a terminal failure
			return c.JSON(http.StatusOK, dto.CallbackAck{ReminderId: payload.ReminderId, Result: "failed"})
		default:
			return c.JSON(http.StatusOK, dto.CallbackAck{ReminderId: payload.ReminderId, Result: "sent"})
		}
	}
}

//clientIdentity keys the rate limit windows: the declared client id when
//present, the caller address otherwise
func clientIdentity(c echo.Context) string {
	if id := c.Request().Header.Get("X-Client-Id"); !util.IsBlank(id) {
		return id
	}
	return c.RealIP()
}

func writeScheduleError(c echo.Context, err error) error {
	switch e := err.(type) {
	case *service.InvalidPayloadErr:
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: e.Problems()})
	case *transcribe.TranscriptionErr:
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{e.Error()}})
	case *service.RateLimitErr:
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
		return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Errors: []string{e.Error()}})
	case *service.SchedulingErr:
		zap.L().Error("reminder could not be armed", zap.Error(e))
		return c.String(http.StatusInternalServerError, "System malfunction. Please, try later")
	default:
		zap.L().Error("error scheduling reminder", zap.Error(err))
		return c.String(http.StatusInternalServerError, "System malfunction. Please, try later")
	}
}
