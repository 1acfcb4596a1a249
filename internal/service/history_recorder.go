package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/repository"
)

const maxStoredBodySize = 64 * 1024

// blockedHeaders are credentials that never reach the history table.
var blockedHeaders = map[string]bool{
	"Authorization":       true,
	"Cookie":              true,
	"Proxy-Authorization": true,
	"X-Forwarded-For":     true,
}

// HistoryRecorder stores every finished execution in the request history.
type HistoryRecorder struct {
	repo   repository.IRequestRepository
	logger *log.Logger
}

func NewHistoryRecorder(repo repository.IRequestRepository, l *log.Logger) *HistoryRecorder {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &HistoryRecorder{
		repo:   repo,
		logger: l,
	}
}

func (h *HistoryRecorder) Record(ctx context.Context, e Execution) {
	// the caller may already be gone; history is written regardless
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := h.repo.Create(ctx, newHistoryEntry(e)); err != nil {
		h.logger.Printf("Error saving request history: %v", err)
	}
}

func newHistoryEntry(e Execution) *model.Request {
	entry := &model.Request{
		ExecutedAt:    e.Started,
		RequestMethod: string(e.Config.Method),
		RequestURL:    e.URL,
		DurationMs:    int(e.Duration.Milliseconds()),
	}
	if headers, err := json.Marshal(storedHeaders(e.Config.Headers)); err == nil {
		entry.RequestHeaders = headers
	}
	if e.Outcome.Status != 0 {
		status := e.Outcome.Status
		entry.ResponseStatusCode = &status
	}
	if body, ok := bodyText(e.Outcome.Data); ok {
		entry.ResponseBody = &body
	}
	if e.Outcome.Error != nil {
		msg := e.Outcome.Error.Error()
		entry.ErrorMessage = &msg
	}
	return entry
}

func storedHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if blockedHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		out[k] = v
	}
	return out
}

func bodyText(data any) (string, bool) {
	if data == nil {
		return "", false
	}
	var text string
	if s, ok := data.(string); ok {
		text = s
	} else {
		encoded, err := json.Marshal(data)
		if err != nil {
			return "", false
		}
		text = string(encoded)
	}
	if len(text) > maxStoredBodySize {
		cut := maxStoredBodySize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, true
}
