package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/artemmm11/SMS-reminder/util"
)

type TranscriptionErr struct {
	message string
}

func (e *TranscriptionErr) Error() string {
	return e.message
}

func NewTranscriptionError(msg string) *TranscriptionErr {
	return &TranscriptionErr{message: msg}
}

//Transcriber converts a recorded message into text. The implementation is an
//opaque external collaborator: audio bytes in, text or a typed failure out.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

type client struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewClient(url, token string, timeout time.Duration) Transcriber {
	return &client{url: url, token: token, httpClient: &http.Client{Timeout: timeout}}
}

func (c *client) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	if util.IsBlank(c.url) {
		return "", NewTranscriptionError("transcription is not configured")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "recording")
	if err != nil {
		return "", NewTranscriptionError(err.Error())
	}
	if _, err := part.Write(audio); err != nil {
		return "", NewTranscriptionError(err.Error())
	}
	_ = writer.WriteField("content_type", mime)
	if err := writer.Close(); err != nil {
		return "", NewTranscriptionError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return "", NewTranscriptionError(err.Error())
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewTranscriptionError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", NewTranscriptionError("transcription service returned " + resp.Status)
	}

	var reply struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", NewTranscriptionError("malformed transcription reply: " + err.Error())
	}

	if util.IsBlank(reply.Text) {
		return "", NewTranscriptionError("could not recognize any speech in the recording")
	}

	return strings.TrimSpace(reply.Text), nil
}
