package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Kalpithaac/enitity/internal/document"
	"github.com/Kalpithaac/enitity/internal/extractor"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/schema"
	"github.com/Kalpithaac/enitity/internal/types"
)

const (
	detailInvalidBase64 = "Invalid Base64"
	detailInvalidPDF    = "Invalid PDF document"
	detailInvalidModel  = "Invalid JSON from model"
	detailInternal      = "Internal Server Error"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeErr(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.log).WithField("handler", "extract-fields")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.WithField("limit", tooLarge.Limit).Warn("request body too large")
			writeErr(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		log.WithError(err).Warn("failed to read request body")
		writeErr(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	if err := schema.ValidateRequest(body); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			log.WithField("reason", ve.Detail).Info("request rejected by schema")
			writeErr(w, http.StatusUnprocessableEntity, ve.Detail)
			return
		}
		log.WithError(err).Error("request schema unavailable")
		writeErr(w, http.StatusInternalServerError, detailInternal)
		return
	}

	var req types.ExtractionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, "request body does not match ExtractionRequest")
		return
	}

	values, err := s.proc.Process(r.Context(), req)
	if err != nil {
		status, detail := errorStatus(err)
		log.WithField("status", status).WithError(err).Warn("extraction failed")
		writeErr(w, status, detail)
		return
	}

	writeRaw(w, http.StatusOK, values)
}

// errorStatus maps pipeline errors to a status and a client-safe detail.
// Anything unrecognised is a generic 500 so provider messages never leak.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, document.ErrInvalidEncoding):
		return http.StatusBadRequest, detailInvalidBase64
	case errors.Is(err, document.ErrDocumentParse):
		return http.StatusUnprocessableEntity, detailInvalidPDF
	case errors.Is(err, extractor.ErrModelOutputInvalid):
		return http.StatusInternalServerError, detailInvalidModel
	}
	return http.StatusInternalServerError, detailInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw sends already-encoded JSON untouched.
func writeRaw(w http.ResponseWriter, status int, body types.FieldValues) {
	b, _ := body.MarshalJSON()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, types.ErrorResponse{Detail: detail})
}
