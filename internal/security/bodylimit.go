package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// BodyLimit caps request payload size. Order payloads are small JSON; a
// megabyte is generous headroom.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 for oversized requests. Accepted bodies are
// buffered in full so downstream decoders get a plain re-readable
// reader with an accurate ContentLength.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		// Declared length is checked first to reject without reading.
		if r.ContentLength > b.Max {
			tooLarge(w)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		switch {
		case err != nil && !errors.Is(err, io.EOF):
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		case int64(len(body)) > b.Max:
			tooLarge(w)
			return
		}
		_ = r.Body.Close()

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter) {
	http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
}
