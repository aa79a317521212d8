// Package transport provides HTTP handlers for the verification domain.
package transport

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/tch-dev/sourcify/internal/ingest"
	"github.com/tch-dev/sourcify/internal/metadata"
	"github.com/tch-dev/sourcify/internal/validation"
	"github.com/tch-dev/sourcify/internal/verification/domain"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to disk and are cleaned up by the multipart reader.
const maxUploadMemory = 32 << 20

// Service defines the verification service interface for HTTP transport.
type Service interface {
	CheckFilesWithUnused(files []ingest.File) ([]*domain.CheckedContract, []string, error)
}

// Handler handles HTTP requests for verification.
type Handler struct {
	svc Service
}

// NewHandler creates a new verification HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the verification routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/verify", h.handleVerify)
}

// handleVerify accepts a multipart upload of candidate files (form field
// "files", any number of parts; archives are expanded server side) and
// returns one result per metadata document found.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	files, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "No files uploaded")
		return
	}

	contracts, unused, err := h.svc.CheckFilesWithUnused(files)
	if err != nil {
		var malformed *metadata.MalformedTargetError
		switch {
		case errors.Is(err, domain.ErrNoMetadata):
			writeError(w, http.StatusUnprocessableEntity, "NO_METADATA", err.Error())
		case errors.As(err, &malformed):
			writeError(w, http.StatusUnprocessableEntity, "MALFORMED_METADATA", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify sources")
		}
		return
	}

	resp := VerifyResponse{
		Contracts:   make([]ContractResult, 0, len(contracts)),
		UnusedFiles: unused,
	}
	for _, c := range contracts {
		resp.Contracts = append(resp.Contracts, FromDomain(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func readUpload(r *http.Request) ([]ingest.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, errors.New("expected multipart/form-data upload")
	}
	var files []ingest.File
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := readPart(fh)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) (ingest.File, error) {
	part, err := fh.Open()
	if err != nil {
		return ingest.File{}, errors.New("failed to read uploaded file")
	}
	defer part.Close()
	content, err := io.ReadAll(part)
	if err != nil {
		return ingest.File{}, errors.New("failed to read uploaded file")
	}
	name := fh.Filename
	if validation.ValidateSourcePath(name) != nil {
		// Hostile or absolute client-supplied names collapse to the basename.
		name = path.Base(name)
	}
	return ingest.File{Path: name, Content: content}, nil
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
