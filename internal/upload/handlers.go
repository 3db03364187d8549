package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/document"
)

// RegistryResolver hands the handler the registry owned by the request's
// session.
type RegistryResolver interface {
	Registry(r *http.Request) (*document.Registry, error)
}

// Handler wires batch upload processing to HTTP.
type Handler struct {
	Svc      *Service
	Resolver RegistryResolver
	// MaxMemory bounds multipart buffering before spill-to-disk.
	MaxMemory int64
}

// Upload accepts a multipart batch under the "files" field, registers the
// processable files and reports per-file failures.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "upload service not configured", nil)
		return
	}
	reg, err := h.Resolver.Registry(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	maxMemory := h.MaxMemory
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid multipart payload", nil)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "no files provided", nil)
		return
	}

	files := make([]File, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "unable to read file "+header.Filename, nil)
			return
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "unable to read file "+header.Filename, nil)
			return
		}
		files = append(files, File{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: contentTypeFor(header.Filename, header.Header.Get("Content-Type")),
			Data:        data,
		})
	}

	result, err := h.Svc.Process(r.Context(), reg, files)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": result})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBatchTooLarge):
		common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeInvalidInput, err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}

func contentTypeFor(name, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return declared
}
