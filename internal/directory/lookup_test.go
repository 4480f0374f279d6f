package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPLookup_ResolveByPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("phone") {
		case "+441618220000":
			w.Write([]byte(`{"externalId":"crm-12","name":"Acme Support"}`))
		case "":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"phone_required"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no_match"}`))
		}
	}))
	defer srv.Close()

	lk, err := NewHTTPLookup(HTTPLookupConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, err := lk.ResolveByPhone(context.Background(), "+441618220000")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ExternalID != "crm-12" || got.Name != "Acme Support" {
		t.Fatalf("unexpected resolution: %+v", got)
	}

	if _, err := lk.ResolveByPhone(context.Background(), "000"); err == nil {
		t.Fatalf("expected error for unmatched number")
	}
}

func TestHTTPLookup_PhoneRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"phone_required"}`))
	}))
	defer srv.Close()

	lk, _ := NewHTTPLookup(HTTPLookupConfig{BaseURL: srv.URL})

	if _, err := lk.ResolveByPhone(context.Background(), "internal"); !errors.Is(err, ErrPhoneRequired) {
		t.Fatalf("expected ErrPhoneRequired, got %v", err)
	}

	// Blank input short-circuits without a network call.
	if _, err := lk.ResolveByPhone(context.Background(), "  "); !errors.Is(err, ErrPhoneRequired) {
		t.Fatalf("expected ErrPhoneRequired for blank number, got %v", err)
	}
}
