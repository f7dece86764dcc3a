package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
)

// msgTitleAndAmount is shown when the two mandatory fields are missing.
const msgTitleAndAmount = "Please enter title and amount"

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// validationResponse turns validator and domain validation errors into a
// field -> rule map.
func validationResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error(), Fields: map[string]string{}}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Fields[fe.Field()] = fe.Tag()
		}
		if resp.Fields["title"] == "required" || resp.Fields["amount"] == "required" {
			resp.Error = msgTitleAndAmount
		} else {
			resp.Error = "invalid request"
		}
		return resp
	}

	var derr *core.ValidationError
	if errors.As(err, &derr) {
		resp.Fields[derr.Field] = derr.Err.Error()
		if errors.Is(err, core.ErrEmptyTitle) {
			resp.Error = msgTitleAndAmount
		}
	}
	return resp
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs) || errors.Is(err, core.ErrValidation)
}
