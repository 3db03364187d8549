package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/printdesk/backend-print/internal/checkout"
	"github.com/printdesk/backend-print/internal/common"
	"github.com/printdesk/backend-print/internal/document"
	"github.com/printdesk/backend-print/internal/order"
)

// HeaderSessionID carries the session id on requests and responses.
const HeaderSessionID = "X-Session-ID"

type ctxKey struct{}

// Middleware resolves the request's session from the X-Session-ID header,
// opening a fresh one when the header is absent, malformed, or names an
// expired session. The resolved id is echoed back on the response so clients
// can adopt it.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *Session
		if id, err := uuid.Parse(r.Header.Get(HeaderSessionID)); err == nil {
			sess, _ = s.Ensure(id)
		} else {
			sess = s.Create()
		}
		if sess == nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "session store not configured", nil)
			return
		}
		w.Header().Set(HeaderSessionID, sess.ID.String())
		r.Header.Set(HeaderSessionID, sess.ID.String())
		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session resolved by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok
}

func (s *Store) fromRequest(r *http.Request) (*Session, error) {
	if sess, ok := FromContext(r.Context()); ok {
		return sess, nil
	}
	return nil, common.NotFound("session not resolved", ErrNotFound)
}

// Registry implements the document and upload handler resolvers.
func (s *Store) Registry(r *http.Request) (*document.Registry, error) {
	sess, err := s.fromRequest(r)
	if err != nil {
		return nil, err
	}
	return sess.Registry, nil
}

// Aggregator implements the order and checkout handler resolvers.
func (s *Store) Aggregator(r *http.Request) (*order.Aggregator, error) {
	sess, err := s.fromRequest(r)
	if err != nil {
		return nil, err
	}
	return sess.Aggregator, nil
}

// Bridge implements the checkout and payment handler resolvers.
func (s *Store) Bridge(r *http.Request) (*checkout.Bridge, error) {
	sess, err := s.fromRequest(r)
	if err != nil {
		return nil, err
	}
	return sess.Bridge, nil
}
