package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"aptbot/internal/core/chatbot"
	"aptbot/internal/core/session"
)

const maxBodyBytes = 1 << 20

type ApiResponse struct {
	Status  string `json:"status"` // success | fail
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func DecodeRequestBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func WriteJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func RespondSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJson(w, statusCode, ApiResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func RespondFail(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJson(w, statusCode, ApiResponse{
		Status:  "fail",
		Message: message,
		Data:    data,
	})
}

func RespondTooManyRequests(w http.ResponseWriter, retryAfterSec int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	RespondFail(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
}

// StatusForError maps service errors onto response codes.
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatbot.ErrEmptyMessage), errors.Is(err, chatbot.ErrMessageTooLong):
		return http.StatusBadRequest
	case errors.Is(err, chatbot.ErrToolRoundsExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
