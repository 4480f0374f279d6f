package directory

import (
	"context"
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

// ErrPhoneRequired is returned when the external directory reports that
// no usable phone number was supplied. The pipeline treats it as a
// business outcome (internal call), not an operational failure.
var ErrPhoneRequired = errors.New("directory: phone number required")

// Resolved is an organisation match from the external directory.
type Resolved struct {
	ExternalID string
	Name       string
}

// Lookup resolves phone numbers against a CRM-style directory service.
type Lookup interface {
	ResolveByPhone(ctx context.Context, number string) (Resolved, error)
}

type HTTPLookupConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxElapsed time.Duration
}

// HTTPLookup calls GET {base}/resolve?phone=... expecting
// {"externalId": "...", "name": "..."} on success, or an error body
// {"error": "phone_required"} with status 422.
type HTTPLookup struct {
	baseURL    string
	client     *http.Client
	maxElapsed time.Duration
}

func NewHTTPLookup(cfg HTTPLookupConfig) (*HTTPLookup, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("directory: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 20 * time.Second
	}
	return &HTTPLookup{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		maxElapsed: cfg.MaxElapsed,
	}, nil
}

type resolveResponse struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Error      string `json:"error,omitempty"`
}

func (l *HTTPLookup) ResolveByPhone(ctx context.Context, number string) (Resolved, error) {
	if strings.TrimSpace(number) == "" {
		return Resolved{}, ErrPhoneRequired
	}

	u := l.baseURL + "/resolve?phone=" + url.QueryEscape(number)

	var body resolveResponse
	var status int

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		status = resp.StatusCode
		if status >= 500 {
			return fmt.Errorf("directory: server error: %s", strings.TrimSpace(string(raw)))
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return backoff.Permanent(fmt.Errorf("directory: decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = l.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Resolved{}, err
	}

	switch {
	case status == http.StatusUnprocessableEntity || body.Error == "phone_required":
		return Resolved{}, ErrPhoneRequired
	case status >= 400:
		return Resolved{}, fmt.Errorf("directory: resolve failed with status %d: %s", status, body.Error)
	case body.ExternalID == "":
		return Resolved{}, fmt.Errorf("directory: resolve returned no external id")
	}

	return Resolved{ExternalID: body.ExternalID, Name: body.Name}, nil
}
