package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"call-insights/internal/analysis"
	"call-insights/internal/calls"
	"call-insights/internal/embeddings"
	"call-insights/internal/pipeline"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"

	"github.com/gin-gonic/gin"
)

type capturingProducer struct {
	jobs []queue.CallJob
}

func (p *capturingProducer) Enqueue(_ context.Context, job queue.CallJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

type testAPI struct {
	calls    *calls.MemoryRepo
	results  *analysis.MemoryRepo
	producer *capturingProducer
	router   *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	callRepo := calls.NewMemoryRepo()
	logs := proclog.NewService(proclog.NewMemoryRepo())
	results := analysis.NewMemoryRepo()
	vectors := embeddings.NewMemoryRepo()
	producer := &capturingProducer{}

	h := Handlers{
		Calls:       callRepo,
		Logs:        logs,
		Results:     results,
		Producer:    producer,
		Reprocessor: pipeline.NewReprocessor(callRepo, logs, results, vectors, producer),
	}

	r := gin.New()
	r.POST("/v1/jobs", h.EnqueueJob)
	r.GET("/v1/calls", h.ListCalls)
	r.GET("/v1/calls/:id", h.GetCall)
	r.GET("/v1/calls/:id/log", h.GetCallLog)
	r.GET("/v1/calls/:id/analysis", h.GetCallAnalysis)
	r.POST("/v1/calls/:id/reprocess", h.ReprocessCall)

	return &testAPI{calls: callRepo, results: results, producer: producer, router: r}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestEnqueueJob(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/v1/jobs", `{"recording_ref":"rec-9","locator_hints":{"leg":"in"}}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(a.producer.jobs) != 1 || a.producer.jobs[0].RecordingRef != "rec-9" {
		t.Fatalf("job not enqueued: %+v", a.producer.jobs)
	}
	if a.producer.jobs[0].LocatorHints["leg"] != "in" {
		t.Fatalf("hints lost: %+v", a.producer.jobs[0])
	}
}

func TestEnqueueJobRequiresRef(t *testing.T) {
	a := newTestAPI(t)
	if w := a.do(t, http.MethodPost, "/v1/jobs", `{"recording_ref":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if len(a.producer.jobs) != 0 {
		t.Fatal("blank ref was enqueued")
	}
}

func TestGetCall(t *testing.T) {
	a := newTestAPI(t)
	seed := &calls.CallRecord{ID: "c1", RecordingRef: "rec-1", Status: calls.StatusCompleted}
	if err := a.calls.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := a.do(t, http.MethodGet, "/v1/calls/c1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got calls.CallRecord
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "c1" || got.Status != calls.StatusCompleted {
		t.Fatalf("unexpected body: %+v", got)
	}

	if w := a.do(t, http.MethodGet, "/v1/calls/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing call status = %d", w.Code)
	}
}

func TestListCallsFiltersByStatus(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	_ = a.calls.Create(ctx, &calls.CallRecord{ID: "c1", RecordingRef: "r1", Status: calls.StatusCompleted})
	_ = a.calls.Create(ctx, &calls.CallRecord{ID: "c2", RecordingRef: "r2", Status: calls.StatusFailed})

	w := a.do(t, http.MethodGet, "/v1/calls?status=FAILED", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Calls []calls.CallRecord `json:"calls"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Calls) != 1 || body.Calls[0].ID != "c2" {
		t.Fatalf("filter broken: %+v", body.Calls)
	}

	if w := a.do(t, http.MethodGet, "/v1/calls?status=BOGUS", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bogus status = %d", w.Code)
	}
}

func TestGetCallAnalysis(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	_ = a.calls.Create(ctx, &calls.CallRecord{ID: "c1", RecordingRef: "r1", Status: calls.StatusCompleted})
	_ = a.results.Create(ctx, &analysis.Result{ID: "an1", CallID: "c1", Sentiment: analysis.SentimentPositive})

	w := a.do(t, http.MethodGet, "/v1/calls/c1/analysis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w := a.do(t, http.MethodGet, "/v1/calls/c2/analysis", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing analysis status = %d", w.Code)
	}
}

func TestReprocessCall(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	_ = a.calls.Create(ctx, &calls.CallRecord{ID: "c1", RecordingRef: "rec-1", Status: calls.StatusCompleted})
	_ = a.results.Create(ctx, &analysis.Result{ID: "an1", CallID: "c1"})

	w := a.do(t, http.MethodPost, "/v1/calls/c1/reprocess", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(a.producer.jobs) != 1 || a.producer.jobs[0].RecordingRef != "rec-1" {
		t.Fatalf("job not re-enqueued: %+v", a.producer.jobs)
	}
	rec, _ := a.calls.GetByID(ctx, "c1")
	if rec.Status != calls.StatusPending {
		t.Fatalf("status = %s, want PENDING", rec.Status)
	}

	if w := a.do(t, http.MethodPost, "/v1/calls/nope/reprocess", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing call status = %d", w.Code)
	}
}
