package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/observability"
	appsession "citizenportal.org/portal-web/internal/portal/session"
)

type adminSessionKey struct{}

// SessionStore is the part of session.Manager the middleware needs.
type SessionStore interface {
	Load(*http.Request) (*appsession.Session, error)
	New() *appsession.Session
	Save(http.ResponseWriter, *appsession.Session) error
	Destroy(http.ResponseWriter)
}

// Session puts the admin session in the request context and writes it back
// just before the response status goes out.
func Session(store SessionStore) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())
			sess := loadSession(store, w, r, logger)

			sw := &sessionWriter{ResponseWriter: w, save: func() {
				if err := store.Save(w, sess); err != nil {
					logger.Error("admin session save failed", zap.Error(err))
				}
			}}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), adminSessionKey{}, sess)))
			sw.commit()
		})
	}
}

func loadSession(store SessionStore, w http.ResponseWriter, r *http.Request, logger *zap.Logger) *appsession.Session {
	sess, err := store.Load(r)
	switch {
	case errors.Is(err, appsession.ErrExpired):
		logger.Info("admin session expired")
		store.Destroy(w)
	case err != nil:
		logger.Warn("admin session load failed", zap.Error(err))
	case sess != nil:
		return sess
	}
	return store.New()
}

// SessionFromContext returns the admin session for this request.
func SessionFromContext(ctx context.Context) (*appsession.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(adminSessionKey{}).(*appsession.Session)
	return sess, ok && sess != nil
}

type sessionWriter struct {
	http.ResponseWriter
	once sync.Once
	save func()
}

func (w *sessionWriter) commit() { w.once.Do(w.save) }

func (w *sessionWriter) WriteHeader(status int) {
	w.commit()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(p []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(p)
}

func (w *sessionWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
