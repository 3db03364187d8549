package document

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/events"
)

// RegistryResolver hands the handler the registry owned by the request's
// session.
type RegistryResolver interface {
	Registry(r *http.Request) (*Registry, error)
}

// Handler wires registry operations to HTTP.
type Handler struct {
	Resolver RegistryResolver
	Events   *events.Bus
}

// List returns the live documents in insertion order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry(w, r)
	if err != nil {
		return
	}
	docs := reg.List()
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"documents": docs}})
}

// UpdateOptions merges a partial option patch into one document.
func (h *Handler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry(w, r)
	if err != nil {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid document id", nil)
		return
	}
	var patch OptionsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid payload", nil)
		return
	}
	doc, err := reg.SetOptions(id, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOptionsUpdated, doc.ID.String(), map[string]any{
			"documentId": doc.ID.String(),
			"options":    doc.Options,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// Remove deletes one document from the registry.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registry(w, r)
	if err != nil {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid document id", nil)
		return
	}
	if err := reg.Remove(id); err != nil {
		h.writeError(w, err)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicDocumentRemoved, id.String(), map[string]any{
			"documentId": id.String(),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"removed": id.String()}})
}

func (h *Handler) registry(w http.ResponseWriter, r *http.Request) (*Registry, error) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "registry resolver not configured", nil)
		return nil, errors.New("resolver not configured")
	}
	reg, err := h.Resolver.Registry(r)
	if err != nil {
		common.WriteError(w, err)
		return nil, err
	}
	return reg, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrValidation):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
