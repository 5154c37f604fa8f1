package server

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/mcstructs/mcstructs/pkg/varint"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request errors.
var (
	ErrUnknownKind = errors.New("server: kind must be varint or varlong")
	ErrBadValue    = errors.New("server: value is not an integer of the requested width")
	ErrBadHex      = errors.New("server: body is not hex")
	ErrEmptyInput  = errors.New("server: no bytes to decode")
)

// errorResponse is the JSON body of every failed API request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a request or codec error to an HTTP status and a short
// machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, varint.ErrOverlong):
		return http.StatusUnprocessableEntity, "overlong"
	case errors.Is(err, varint.ErrReadFailure):
		return http.StatusBadRequest, "truncated"
	case errors.Is(err, ErrBadHex):
		return http.StatusBadRequest, "bad_hex"
	case errors.Is(err, ErrEmptyInput):
		return http.StatusBadRequest, "empty"
	case errors.Is(err, ErrUnknownKind):
		return http.StatusBadRequest, "unknown_kind"
	case errors.Is(err, ErrBadValue):
		return http.StatusBadRequest, "bad_value"
	default:
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return http.StatusRequestEntityTooLarge, "too_large"
		}
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
