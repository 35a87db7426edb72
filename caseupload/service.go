package caseupload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/caseingest/docingest"
)

// Service exposes the ingestion pipeline over HTTP.
type Service struct {
	cfg    *Config
	store  *Store
	pipe   *docingest.Pipeline
	logger *slog.Logger
}

// NewService wires the service. A nil logger falls back to slog.Default.
func NewService(cfg *Config, store *Store, pipe *docingest.Pipeline, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, store: store, pipe: pipe, logger: logger}
}

// Routes mounts the service endpoints on a chi router.
func (s *Service) Routes(r chi.Router) {
	r.Post("/v1/documents", s.handleUpload)
	r.Get("/v1/documents", s.handleList)
	r.Get("/v1/documents/{id}", s.handleGet)
	r.Get("/v1/documents/{id}/text", s.handleGetText)
	r.Get("/v1/health", s.handleHealth)
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	// The multipart envelope adds overhead beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes()+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			s.writeTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("multipart field %q: %v", "file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			s.writeTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("read upload: %v", err))
		return
	}

	format, warnings, err := ValidateUpload(header.Filename, int64(len(data)), data, s.cfg)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeError(w, verr.HTTPStatus, verr.Code, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// The per-document deadline lives here, not in the pipeline: an
	// exceeded deadline surfaces as a timeout failure at its boundary.
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.IngestTimeout())
	defer cancel()

	res, err := s.pipe.Ingest(ctx, data, format)
	if err != nil {
		s.writeFailure(w, header.Filename, err)
		return
	}

	doc := &Document{
		ID:        NewDocumentID(),
		Filename:  header.Filename,
		Metadata:  res.Metadata,
		Text:      res.Text,
		Errors:    append(warnings, res.Errors...),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertDocument(doc); err != nil {
		s.logger.Error("persist document", "id", doc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to persist document")
		return
	}

	s.logger.Info("document ingested",
		"id", doc.ID,
		"filename", doc.Filename,
		"format", format,
		"method", res.Metadata.ExtractionMethod,
		"words", res.Metadata.WordCount,
		"warnings", len(doc.Errors))

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("get document", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to load document")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "not_found", "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Service) handleGetText(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("get document", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to load document")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "not_found", "document not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc.Text)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(50)
	if err != nil {
		s.logger.Error("list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "db": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// StartRetention sweeps expired documents periodically until ctx is done.
// A zero retention window disables the sweep.
func (s *Service) StartRetention(ctx context.Context) {
	retention := s.cfg.Retention()
	if retention == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.store.DeleteExpired(time.Now().Add(-retention))
				if err != nil {
					s.logger.Error("retention sweep", "error", err)
					continue
				}
				if n > 0 {
					s.logger.Info("retention sweep", "deleted", n)
				}
			}
		}
	}()
}

// isBodyTooLarge reports whether err came from the MaxBytesReader limit
// tripping mid-read, so oversize uploads answer 413 no matter how far over
// the limit they are.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (s *Service) writeTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("upload exceeds maximum file size of %d MB", s.cfg.MaxFileMB))
}

// writeFailure maps a pipeline failure to an HTTP response.
func (s *Service) writeFailure(w http.ResponseWriter, filename string, err error) {
	var failure *docingest.Failure
	if !errors.As(err, &failure) {
		s.logger.Error("ingest", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "ingestion failed")
		return
	}

	status := http.StatusInternalServerError
	switch failure.Reason {
	case docingest.ReasonCorrupt:
		status = http.StatusUnprocessableEntity
	case docingest.ReasonUnsupported:
		status = http.StatusUnsupportedMediaType
	case docingest.ReasonEngineUnavailable:
		status = http.StatusServiceUnavailable
	case docingest.ReasonTimeout:
		status = http.StatusGatewayTimeout
	}

	s.logger.Warn("ingest failed",
		"filename", filename,
		"reason", failure.Reason,
		"error", failure.Err)
	writeError(w, status, string(failure.Reason), failure.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}
