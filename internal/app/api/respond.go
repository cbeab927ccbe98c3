package api

import (
	"encoding/json"
	"net/http"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/slg"
)

const (
	fieldMessage = "message"
	fieldReply   = "reply"

	msgUnavailable = "AI service unavailable. Please try again later."
	msgUnexpected  = "An unexpected error occurred."
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slg.GetSlog(r.Context()).Warn("failed to write response", "err", err)
	}
}

func httpStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeProvider:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeErr reports err under field. Client errors carry their own message, everything else is logged
// and replaced by generic.
func writeErr(w http.ResponseWriter, r *http.Request, err error, field, generic string) {
	code := apperr.CodeOf(err)

	msg := apperr.Message(err)
	switch {
	case code.ClientCaused() && msg != "":
	case code == apperr.CodeProvider:
		msg = msgUnavailable
	default:
		msg = generic
	}

	if !code.ClientCaused() {
		slg.GetSlog(r.Context()).Error("request failed", "err", err, "code", code.String())
	}

	writeJSON(w, r, httpStatus(code), map[string]string{
		field:   msg,
		"error": code.String(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, "Invalid JSON body.")
	}

	return nil
}
