package recordings

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrNotFound = errors.New("recordings: recording not found")

// Recording is one fetched call recording with its CDR metadata.
type Recording struct {
	StartTime time.Time
	EndTime   time.Time
	MimeType  string
	Bytes     []byte

	// CDR carries the raw call-detail-record fields as delivered by the
	// recording source (source/destination numbers, caller ids, ...).
	CDR map[string]string
}

// DurationSeconds is derived from the source-supplied timestamps.
func (r Recording) DurationSeconds() int {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return int(r.EndTime.Sub(r.StartTime) / time.Second)
}

// Source fetches recordings by their external reference.
type Source interface {
	Fetch(ctx context.Context, ref string, hints map[string]string) (Recording, error)
}

type HTTPSourceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxElapsed time.Duration
}

// HTTPSource calls GET {base}/recordings/{ref} expecting
//
//	{
//	  "startEpoch": 1700000000, "endEpoch": 1700000180,
//	  "mimeType": "audio/mpeg", "bytesBase64": "...",
//	  "cdr": {"src": "...", "dst": "...", ...}
//	}
//
// Locator hints are passed through as query parameters.
type HTTPSource struct {
	baseURL    string
	client     *http.Client
	maxElapsed time.Duration
}

func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("recordings: base url is required")
	}
	if cfg.Timeout <= 0 {
		// Recording payloads are large; allow generous transfer time.
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		maxElapsed: cfg.MaxElapsed,
	}, nil
}

type fetchResponse struct {
	StartEpoch  int64             `json:"startEpoch"`
	EndEpoch    int64             `json:"endEpoch"`
	MimeType    string            `json:"mimeType"`
	BytesBase64 string            `json:"bytesBase64"`
	CDR         map[string]string `json:"cdr"`
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string, hints map[string]string) (Recording, error) {
	if strings.TrimSpace(ref) == "" {
		return Recording{}, errors.New("recordings: ref is required")
	}

	u := s.baseURL + "/recordings/" + url.PathEscape(ref)
	if len(hints) > 0 {
		q := url.Values{}
		for k, v := range hints {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var body fetchResponse

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("recordings: server error: %s", strings.TrimSpace(string(raw)))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("recordings: fetch failed with status %d", resp.StatusCode))
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return backoff.Permanent(fmt.Errorf("recordings: decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Recording{}, err
	}

	audio, err := base64.StdEncoding.DecodeString(body.BytesBase64)
	if err != nil {
		return Recording{}, fmt.Errorf("recordings: decode audio payload: %w", err)
	}
	if len(audio) == 0 {
		return Recording{}, errors.New("recordings: empty audio payload")
	}

	rec := Recording{
		StartTime: time.Unix(body.StartEpoch, 0).UTC(),
		EndTime:   time.Unix(body.EndEpoch, 0).UTC(),
		MimeType:  body.MimeType,
		Bytes:     audio,
		CDR:       body.CDR,
	}
	if rec.MimeType == "" {
		rec.MimeType = "application/octet-stream"
	}
	return rec, nil
}

// BlobKey derives the deterministic object-store key for a recording.
// Re-runs of the same ref overwrite the same object rather than piling
// up duplicates.
func BlobKey(ref, mimeType string) string {
	return "recordings/" + ref + extensionFor(mimeType)
}

// TranscriptKey derives the object-store key for a call's transcript text.
func TranscriptKey(ref string) string {
	return "transcripts/" + ref + ".txt"
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	default:
		return ".bin"
	}
}
