package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"call-insights/internal/analysis"
	"call-insights/internal/calls"
	"call-insights/internal/pipeline"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Calls       calls.Repository
	Logs        *proclog.Service
	Results     analysis.Repository
	Producer    queue.Producer
	Reprocessor *pipeline.Reprocessor
}

// --- Jobs ---

type enqueueJobRequest struct {
	RecordingRef string            `json:"recording_ref"`
	LocatorHints map[string]string `json:"locator_hints,omitempty"`
}

// EnqueueJob is the doorway for the recording source's webhook: it
// accepts a job and hands it to the queue, nothing more.
func (h Handlers) EnqueueJob(c *gin.Context) {
	var req enqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.RecordingRef) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "recording_ref required"})
		return
	}
	job := queue.CallJob{RecordingRef: req.RecordingRef, LocatorHints: req.LocatorHints}
	if err := h.Producer.Enqueue(c.Request.Context(), job); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"recording_ref": req.RecordingRef, "queued": true})
}

// --- Calls (read models) ---

func (h Handlers) ListCalls(c *gin.Context) {
	filter := calls.ListFilter{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	if s := c.Query("status"); s != "" {
		status := calls.CallStatus(s)
		if !status.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Status = status
	}

	records, err := h.Calls.List(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": records})
}

func (h Handlers) GetCall(c *gin.Context) {
	rec, err := h.Calls.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, calls.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) GetCallLog(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Calls.GetByID(c.Request.Context(), id); errors.Is(err, calls.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	entries, err := h.Logs.ListByCall(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h Handlers) GetCallAnalysis(c *gin.Context) {
	id := c.Param("id")
	result, err := h.Results.GetByCall(c.Request.Context(), id)
	if errors.Is(err, analysis.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no analysis for call"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analysis lookup failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Reprocess ---

func (h Handlers) ReprocessCall(c *gin.Context) {
	err := h.Reprocessor.Reprocess(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	case errors.Is(err, pipeline.ErrNoRecordingRef):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "call has no recording reference"})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reprocess failed"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"call_id": c.Param("id"), "status": string(calls.StatusPending)})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
