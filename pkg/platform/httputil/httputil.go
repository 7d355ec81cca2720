// Package httputil holds JSON response helpers shared by HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "tracker/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies read by DecodeAndPrepare.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request structs that normalize and check
// themselves after decoding.
type Validatable[T any] interface {
	*T
	Validate() error
}

// Detailer is implemented by errors that carry a structured detail list
// for the response body.
type Detailer interface {
	Details() any
}

// ErrorResponse is the JSON envelope for every error response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Details     any    `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status and error envelope. Uncoded errors
// and internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code, ok := dErrors.CodeOf(err)
	if !ok {
		code = dErrors.CodeInternal
	}
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.Description = dErrors.Message(err)
		var d Detailer
		if errors.As(err, &d) {
			resp.Details = d.Details()
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeAndPrepare decodes the JSON body into T and runs its Validate method.
// On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT Validatable[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON request structure"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
