package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr writes err with the status HTTPStatusFromError picks.
// Server side failures are logged and their detail is withheld.
func RespondWithErr(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.WithError(err).Error("request failed")
	}
	RespondWithError(w, status, Message(err))
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// DecodeJSON reads a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return Errorf("request body is required: %w", ErrBadRequest)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, ErrPayloadTooLarge)
		}
		return Errorf("invalid request payload: %w", ErrBadRequest)
	}
	return nil
}
