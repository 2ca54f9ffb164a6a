package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/centrio/centrio-backend/api/responses"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
	"github.com/centrio/centrio-backend/pkg/logger"
)

// headerTracker remembers whether the handler already committed a status,
// which is the case once /files has started streaming a blob.
type headerTracker struct {
	http.ResponseWriter
	committed bool
}

func (h *headerTracker) WriteHeader(status int) {
	h.committed = true
	h.ResponseWriter.WriteHeader(status)
}

func (h *headerTracker) Write(b []byte) (int, error) {
	h.committed = true
	return h.ResponseWriter.Write(b)
}

func (h *headerTracker) Unwrap() http.ResponseWriter { return h.ResponseWriter }

// Recoverer turns handler panics into a 500 envelope. When the response is
// already committed only the log line is written. http.ErrAbortHandler is
// re-raised so net/http can drop the connection quietly.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":     rec,
						"method":    r.Method,
						"path":      r.URL.Path,
						"committed": tracker.committed,
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				if tracker.committed {
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(tracker, r)
		})
	}
}
