package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/reactive"
	"github.com/suar-net/suar-reactive/internal/service"
)

// RequestHandler executes a request described by the caller and reports the
// settled outcome.
type RequestHandler struct {
	transport service.Transport
	recorders []service.Recorder
	logger    *log.Logger
}

func NewRequestHandler(t service.Transport, recorders []service.Recorder, l *log.Logger) *RequestHandler {
	return &RequestHandler{
		transport: t,
		recorders: recorders,
		logger:    l,
	}
}

func (h *RequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var dto model.DTORequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	// Validate the DTO
	if err := validate.Struct(&dto); err != nil {
		respondWithError(w, http.StatusBadRequest, ValidationError(err))
		return
	}

	ctx := r.Context()
	if dto.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(dto.Timeout)*time.Millisecond)
		defer cancel()
	}

	opts := []service.ControllerOption{service.WithLogger(h.logger)}
	for _, rec := range h.recorders {
		opts = append(opts, service.WithRecorder(rec))
	}
	controller := service.NewRequestController(ctx, reactive.Static(configFromDTO(&dto)), h.transport, opts...)

	started := time.Now()
	outcome := controller.Execute(ctx, nil)
	resp := model.DTOResponse{
		Status:    outcome.Status,
		Data:      outcome.Data,
		Duration:  time.Since(started),
		Timestamp: started,
	}

	var httpErr *model.HTTPError
	switch {
	case outcome.Error == nil:
	case errors.As(outcome.Error, &httpErr):
		resp.Error = map[string]any{"status": httpErr.Status, "data": httpErr.Data}
	case errors.Is(outcome.Error, service.ErrInvalidInput), errors.Is(outcome.Error, service.ErrMissingURL):
		respondWithError(w, http.StatusBadRequest, outcome.Error.Error())
		return
	case errors.Is(outcome.Error, service.ErrRequestTimeout), errors.Is(outcome.Error, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, outcome.Error.Error())
		return
	default:
		respondWithJson(w, http.StatusBadGateway, model.DTOResponse{
			Error:     outcome.Error.Error(),
			Duration:  resp.Duration,
			Timestamp: started,
		})
		return
	}

	respondWithJson(w, http.StatusOK, resp)
}

func configFromDTO(dto *model.DTORequest) model.RequestConfig {
	return model.RequestConfig{
		URL:         dto.URL,
		Method:      model.Method(strings.ToUpper(dto.Method)),
		Headers:     dto.Headers,
		Query:       dto.Query,
		Body:        dto.Body,
		Credentials: model.Credentials(dto.Credentials),
	}
}
