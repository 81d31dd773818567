package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"hexboard.app/internal/library"
	"hexboard.app/internal/share"
	"hexboard.app/internal/store"
)

const (
	ErrBadRequest  = "E_BAD_REQUEST"
	ErrNotFound    = "E_NOT_FOUND"
	ErrInvalidLink = "E_INVALID_LINK"
	ErrInternal    = "E_INTERNAL"
)

// InvalidLinkMessage is what a client sees for any undecodable share token.
const InvalidLinkMessage = "invalid or expired link"

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, errorResponse{Code: code, Error: msg})
}

// writeErr maps domain errors to status codes.
func (s *Server) writeErr(rw http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *library.ValidationError
		de *share.DecodeError
	)
	switch {
	case errors.As(err, &de):
		s.metrics.decodeFailures.Add(1)
		writeError(rw, http.StatusBadRequest, ErrInvalidLink, InvalidLinkMessage)
	case errors.As(err, &ve):
		writeError(rw, http.StatusBadRequest, ErrBadRequest, ve.Msg)
	case errors.Is(err, store.ErrEmptyUserID):
		writeError(rw, http.StatusBadRequest, ErrBadRequest, err.Error())
	case errors.Is(err, library.ErrNotFound):
		writeError(rw, http.StatusNotFound, ErrNotFound, err.Error())
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(rw, http.StatusInternalServerError, ErrInternal, "internal error")
	}
}
