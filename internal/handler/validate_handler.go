package handler

import (
	"encoding/json"
	"net/http"

	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/reactive"
	"github.com/suar-net/suar-reactive/internal/validation"
)

// ValidateHandler runs the validation engine over submitted values with
// validator tags as rules.
type ValidateHandler struct{}

func NewValidateHandler() *ValidateHandler {
	return &ValidateHandler{}
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var dto model.DTOValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := validate.Struct(&dto); err != nil {
		respondWithError(w, http.StatusBadRequest, ValidationError(err))
		return
	}

	engine := validation.New(
		reactive.Static(dto.Values),
		reactive.Static(validation.TagRules(dto.Rules)),
	)

	fields := engine.Fields.Read()
	resp := model.DTOValidateResponse{
		Valid:  engine.ValidateAll(),
		Fields: make(map[string]model.DTOFieldState, len(fields)),
	}
	for name, state := range fields {
		resp.Fields[name] = model.DTOFieldState{Valid: state.Valid, Errors: state.Errors}
	}

	respondWithJson(w, http.StatusOK, resp)
}
