package recordings

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSource_Fetch(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/rec-42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("leg") != "inbound" {
			t.Errorf("expected locator hint to pass through, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"startEpoch":  1700000000,
			"endEpoch":    1700000180,
			"mimeType":    "audio/mpeg",
			"bytesBase64": base64.StdEncoding.EncodeToString(audio),
			"cdr":         map[string]string{"src": "0161XXXXXXX", "internal_caller": "ext2041"},
		})
	}))
	defer srv.Close()

	src, err := NewHTTPSource(HTTPSourceConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rec, err := src.Fetch(context.Background(), "rec-42", map[string]string{"leg": "inbound"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(rec.Bytes) != string(audio) {
		t.Fatalf("audio payload mismatch")
	}
	if rec.DurationSeconds() != 180 {
		t.Fatalf("expected 180s duration, got %d", rec.DurationSeconds())
	}
	if rec.CDR["internal_caller"] != "ext2041" {
		t.Fatalf("expected CDR fields, got %+v", rec.CDR)
	}
}

func TestHTTPSource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src, _ := NewHTTPSource(HTTPSourceConfig{BaseURL: srv.URL})
	if _, err := src.Fetch(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlobKey_Deterministic(t *testing.T) {
	if got := BlobKey("rec-42", "audio/mpeg"); got != "recordings/rec-42.mp3" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := BlobKey("rec-42", "audio/wav"); got != "recordings/rec-42.wav" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := BlobKey("rec-42", "something/odd"); got != "recordings/rec-42.bin" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := TranscriptKey("rec-42"); got != "transcripts/rec-42.txt" {
		t.Fatalf("unexpected key %q", got)
	}
}
