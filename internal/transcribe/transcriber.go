package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Result is the outcome of one transcription.
//
// Blank text is a valid, expected result (dead air, carrier tones); the
// pipeline maps it to a business outcome, so it is NOT an error here.
type Result struct {
	Text     string
	Provider string
	Model    string

	// RefinedBy names the refinement pass model when one ran.
	RefinedBy string
}

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (Result, error)
}

type HTTPTranscriberConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxElapsed time.Duration

	// RefineModel, when set, requests a second cleanup pass from the
	// transcription service and is recorded in Result.RefinedBy.
	RefineModel string
}

// HTTPTranscriber posts audio to a whisper-style transcription service:
// POST {base}/transcribe (multipart: file, refine_model?) returning
// {"text": "...", "provider": "...", "model": "..."}.
type HTTPTranscriber struct {
	baseURL     string
	client      *http.Client
	maxElapsed  time.Duration
	refineModel string
}

func NewHTTPTranscriber(cfg HTTPTranscriberConfig) (*HTTPTranscriber, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("transcribe: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 5 * time.Minute
	}
	return &HTTPTranscriber{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		client:      &http.Client{Timeout: cfg.Timeout},
		maxElapsed:  cfg.MaxElapsed,
		refineModel: strings.TrimSpace(cfg.RefineModel),
	}, nil
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (Result, error) {
	if len(audio) == 0 {
		return Result{}, errors.New("transcribe: empty audio")
	}

	var body transcribeResponse

	op := func() error {
		payload, contentType, err := t.buildForm(audio, mimeType)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("transcribe: server error: %s", strings.TrimSpace(string(raw)))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("transcribe: request rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return backoff.Permanent(fmt.Errorf("transcribe: decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = t.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Result{}, err
	}
	if body.Error != "" {
		return Result{}, fmt.Errorf("transcribe: provider error: %s", body.Error)
	}

	res := Result{
		Text:     body.Text,
		Provider: body.Provider,
		Model:    body.Model,
	}
	if res.Provider == "" {
		res.Provider = "whisper"
	}
	if t.refineModel != "" {
		res.RefinedBy = t.refineModel
	}
	return res, nil
}

func (t *HTTPTranscriber) buildForm(audio []byte, mimeType string) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", "audio"+extensionHint(mimeType))
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("mime_type", mimeType); err != nil {
		return nil, "", err
	}
	if t.refineModel != "" {
		if err := w.WriteField("refine_model", t.refineModel); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}

func extensionHint(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".mp3"
	}
}
