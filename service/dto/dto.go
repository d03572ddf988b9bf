package dto

type ScheduleRequest struct {
	Recipient string `json:"recipient" form:"recipient"`
	Message   string `json:"message" form:"message"`
	FireAt    string `json:"fireAt" form:"fireAt"`
	Timezone  string `json:"timezone" form:"timezone"`
	Consent   bool   `json:"consent" form:"consent"`
}

type ScheduleResponse struct {
	ReminderId   string `json:"reminderId"`
	ScheduledFor string `json:"scheduledFor"`
}

type DeliveryCallback struct {
	ReminderId string `json:"reminderId"`
}

type CallbackAck struct {
	ReminderId string `json:"reminderId"`
	Result     string `json:"result"`
}

type ReminderStatus struct {
	ReminderId       string `json:"reminderId"`
	Recipient        string `json:"recipient"`
	Status           string `json:"status"`
	FireAt           string `json:"fireAt"`
	RetryCount       int    `json:"retryCount"`
	LastError        string `json:"lastError,omitempty"`
	ChannelMessageId string `json:"channelMessageId,omitempty"`
	SentAt           string `json:"sentAt,omitempty"`
}

type ErrorResponse struct {
	Errors []string `json:"errors"`
}

//StatusEvent is the webhook payload emitted on reminder state changes
type StatusEvent struct {
	ReminderId string `json:"reminderId"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}
