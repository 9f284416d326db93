package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

type messageBody struct {
	Message string `json:"message"`
}

type serverErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type errorsBody struct {
	Errors []string `json:"errors"`
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Both merged-cause outcomes are rendered once so every caller receives identical bytes.
var (
	invalidCredentialsBody = mustJSON(messageBody{Message: "Invalid credentials (email or password)."})
	resetRequestedBody     = mustJSON(messageBody{Message: "If an account with that email exists, a password reset link has been sent."})
)

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeRaw(w, status, mustJSON(v))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

func writeErrors(w http.ResponseWriter, msgs ...string) {
	writeJSON(w, http.StatusBadRequest, errorsBody{Errors: msgs})
}

func writeServerError(w http.ResponseWriter, msg string, err error) {
	writeJSON(w, http.StatusInternalServerError, serverErrorBody{Message: msg, Error: err.Error()})
}

// writeInvalidCredentials is the only response for a failed login, whatever the cause.
func writeInvalidCredentials(w http.ResponseWriter) {
	writeRaw(w, http.StatusBadRequest, invalidCredentialsBody)
}

// writeResetRequested is the response for every accepted forgot-password request.
func writeResetRequested(w http.ResponseWriter) {
	writeRaw(w, http.StatusOK, resetRequestedBody)
}

var errInvalidBody = errors.New("invalid request body")

// decodeJSON reads exactly one JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}
