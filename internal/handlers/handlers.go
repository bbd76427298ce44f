// Package handlers holds the HTTP controllers. Each one decodes and validates
// a request body, calls a service and writes the result as JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/pliu/prava/internal/auth"
	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/logging"
)

var validate = validator.New()

type errorBody struct {
	Error string `json:"error"`
}

// decode reads a JSON body into dst and validates it. Failures match
// common.ErrInvalidInput.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", common.ErrInvalidInput, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code. Unknown errors are logged and
// answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, status, errorBody{Error: "Internal server error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// caller returns the user put into the context by middleware.AuthMiddleware.
// When there is none it answers 401 and reports false.
func caller(w http.ResponseWriter, r *http.Request, log logging.Logger) (string, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok || id.UserID == "" {
		writeError(w, r, log, common.ErrUnauthenticated)
		return "", false
	}
	return id.UserID, true
}

// queryInt reads a positive integer query parameter. Missing or malformed
// values yield 0 so the service default applies.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
