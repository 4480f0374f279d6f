package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTranscriber_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if r.FormValue("mime_type") != "audio/mpeg" {
			t.Errorf("expected mime_type field, got %q", r.FormValue("mime_type"))
		}
		w.Write([]byte(`{"text":"hello, thanks for calling","provider":"whisper","model":"large-v3"}`))
	}))
	defer srv.Close()

	tr, err := NewHTTPTranscriber(HTTPTranscriberConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	res, err := tr.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Text != "hello, thanks for calling" || res.Model != "large-v3" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RefinedBy != "" {
		t.Fatalf("no refinement configured, got %q", res.RefinedBy)
	}
}

func TestHTTPTranscriber_BlankTextIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"","provider":"whisper","model":"large-v3"}`))
	}))
	defer srv.Close()

	tr, _ := NewHTTPTranscriber(HTTPTranscriberConfig{BaseURL: srv.URL})
	res, err := tr.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("blank transcript must not be an error, got %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected blank text")
	}
}

func TestHTTPTranscriber_RefinementRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		if r.FormValue("refine_model") != "gpt-4o-mini" {
			t.Errorf("expected refine_model field, got %q", r.FormValue("refine_model"))
		}
		w.Write([]byte(`{"text":"refined text","provider":"whisper","model":"large-v3"}`))
	}))
	defer srv.Close()

	tr, _ := NewHTTPTranscriber(HTTPTranscriberConfig{BaseURL: srv.URL, RefineModel: "gpt-4o-mini"})
	res, err := tr.Transcribe(context.Background(), []byte("audio"), "audio/mpeg")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.RefinedBy != "gpt-4o-mini" {
		t.Fatalf("expected refinement metadata, got %+v", res)
	}
}
