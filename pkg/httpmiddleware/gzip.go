package httpmiddleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/pgzip"
)

// GzipMinSize is the smallest response body that is compressed.
const GzipMinSize = 1024

// gzipWriter buffers the start of a response to decide whether it is worth
// compressing.
type gzipWriter struct {
	http.ResponseWriter
	pool   *sync.Pool
	status int
	buf    []byte
	gz     *pgzip.Writer
	plain  bool
}

func (w *gzipWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	switch {
	case w.gz != nil:
		return w.gz.Write(b)
	case w.plain:
		return w.ResponseWriter.Write(b)
	}
	w.buf = append(w.buf, b...)
	if len(w.buf) >= GzipMinSize {
		if err := w.start(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// start commits the headers and flushes the buffered bytes, compressed
// when the response allows it.
func (w *gzipWriter) start() error {
	h := w.ResponseWriter.Header()
	if len(w.buf) < GzipMinSize || h.Get("Content-Encoding") != "" || w.status == http.StatusNoContent {
		w.plain = true
		w.ResponseWriter.WriteHeader(w.status)
		_, err := w.ResponseWriter.Write(w.buf)
		w.buf = nil
		return err
	}

	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)

	w.gz = w.pool.Get().(*pgzip.Writer)
	w.gz.Reset(w.ResponseWriter)
	_, err := w.gz.Write(w.buf)
	w.buf = nil
	return err
}

func (w *gzipWriter) close() error {
	if w.gz == nil {
		if w.plain {
			return nil
		}
		if w.status == 0 {
			// Nothing was written; let net/http send its default response.
			return nil
		}
		return w.start()
	}
	err := w.gz.Close()
	w.pool.Put(w.gz)
	w.gz = nil
	return err
}

func (w *gzipWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Gzip returns a middleware that compresses responses of at least
// GzipMinSize bytes for clients that accept gzip.
func Gzip() Middleware {
	pool := &sync.Pool{New: func() any {
		gz, _ := pgzip.NewWriterLevel(nil, pgzip.DefaultCompression)
		return gz
	}}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			gw := &gzipWriter{ResponseWriter: w, pool: pool}
			defer func() { _ = gw.close() }()
			next.ServeHTTP(gw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
