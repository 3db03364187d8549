package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrNotFound indicates the requested document could not be located.
var ErrNotFound = errors.New("document not found")

// ErrInvalidInput is returned when upload metadata is unusable.
var ErrInvalidInput = errors.New("invalid input")

// ErrValidation is returned when an option value is outside its allowed set.
var ErrValidation = errors.New("invalid option value")

// Observer is notified synchronously after every registry mutation with a
// snapshot of the live document list, in insertion order. Notification runs
// on the mutating call stack so mutation plus recompute form one atomic step.
type Observer interface {
	DocumentsChanged(docs []Document)
}

// Registry owns the mutable collection of uploaded documents and their
// option state. All mutation goes through Register, Remove and SetOptions;
// every other component sees read-only snapshots.
type Registry struct {
	Validate *validator.Validate
	Now      func() time.Time

	mu        sync.Mutex
	docs      []Document
	observers []Observer
}

// NewRegistry constructs an empty registry.
func NewRegistry(validate *validator.Validate) *Registry {
	if validate == nil {
		validate = validator.New()
	}
	return &Registry{Validate: validate}
}

// Subscribe registers an observer. Observers added before the first mutation
// see every change.
func (r *Registry) Subscribe(obs Observer) {
	if obs == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
	obs.DocumentsChanged(r.snapshotLocked())
}

func (r *Registry) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Register appends a new document with default options and notifies
// observers. The page count comes from the upload capability and must be at
// least one; anything else is rejected as defence in depth.
func (r *Registry) Register(name string, sizeBytes int64, pageCount int) (Document, error) {
	if r == nil {
		return Document{}, errors.New("registry not configured")
	}
	if strings.TrimSpace(name) == "" {
		return Document{}, fmt.Errorf("file name is required: %w", ErrInvalidInput)
	}
	if pageCount < 1 {
		return Document{}, fmt.Errorf("page count %d below 1: %w", pageCount, ErrInvalidInput)
	}
	if sizeBytes < 0 {
		return Document{}, fmt.Errorf("negative file size: %w", ErrInvalidInput)
	}
	doc := Document{
		ID:           uuid.New(),
		Name:         name,
		SizeBytes:    sizeBytes,
		PageCount:    pageCount,
		Options:      DefaultOptions(),
		RegisteredAt: r.now(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	r.notifyLocked()
	return doc, nil
}

// Remove deletes the document with the given id and notifies observers.
// Removing an unknown id is an error rather than a no-op; silent no-ops hide
// bugs in the caller.
func (r *Registry) Remove(id uuid.UUID) error {
	if r == nil {
		return errors.New("registry not configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	r.docs = append(r.docs[:idx], r.docs[idx+1:]...)
	r.notifyLocked()
	return nil
}

// SetOptions merges the provided fields into the document's option set and
// notifies observers. Unset fields keep their current value.
func (r *Registry) SetOptions(id uuid.UUID, patch OptionsPatch) (Document, error) {
	if r == nil {
		return Document{}, errors.New("registry not configured")
	}
	if err := r.Validate.Struct(patch); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		return Document{}, fmt.Errorf("options %v: %w", fields, ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(id)
	if idx < 0 {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	opts := r.docs[idx].Options
	if patch.Copies != nil {
		opts.Copies = *patch.Copies
	}
	if patch.ColorMode != nil {
		opts.ColorMode = *patch.ColorMode
	}
	if patch.Layout != nil {
		opts.Layout = *patch.Layout
	}
	if patch.PaperSize != nil {
		opts.PaperSize = *patch.PaperSize
	}
	r.docs[idx].Options = opts
	doc := r.docs[idx]
	r.notifyLocked()
	return doc, nil
}

// Get returns the document with the given id.
func (r *Registry) Get(id uuid.UUID) (Document, error) {
	if r == nil {
		return Document{}, errors.New("registry not configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(id)
	if idx < 0 {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return r.docs[idx], nil
}

// List returns a read-only snapshot of the live documents in insertion
// order. Mutating the snapshot does not affect registry state.
func (r *Registry) List() []Document {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Len reports the number of registered documents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *Registry) indexLocked(id uuid.UUID) int {
	for i, doc := range r.docs {
		if doc.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshotLocked() []Document {
	out := make([]Document, len(r.docs))
	copy(out, r.docs)
	return out
}

func (r *Registry) notifyLocked() {
	snapshot := r.snapshotLocked()
	for _, obs := range r.observers {
		obs.DocumentsChanged(snapshot)
	}
}
