package server

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// CountingWriter wraps an http.ResponseWriter to count bytes written and
// remember the status code, for render telemetry.
type CountingWriter struct {
	http.ResponseWriter
	bytesWritten int64
	statusCode   int
}

// NewCountingWriter creates a new CountingWriter.
func NewCountingWriter(w http.ResponseWriter) *CountingWriter {
	return &CountingWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// Write implements io.Writer.
func (w *CountingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	atomic.AddInt64(&w.bytesWritten, int64(n))
	return n, err
}

// WriteHeader implements http.ResponseWriter.
func (w *CountingWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// BytesWritten returns the total bytes written.
func (w *CountingWriter) BytesWritten() int64 {
	return atomic.LoadInt64(&w.bytesWritten)
}

// StatusCode returns the HTTP status code.
func (w *CountingWriter) StatusCode() int {
	return w.statusCode
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *CountingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// FormatBytes formats a byte count as B, KB, MB or GB.
func FormatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	var v float64
	var unit string
	switch {
	case n >= GB:
		v, unit = float64(n)/GB, "GB"
	case n >= MB:
		v, unit = float64(n)/MB, "MB"
	case n >= KB:
		v, unit = float64(n)/KB, "KB"
	default:
		return fmt.Sprintf("%d B", n)
	}

	switch {
	case v >= 100:
		return fmt.Sprintf("%d %s", int64(v), unit)
	case v >= 10:
		return fmt.Sprintf("%.1f %s", v, unit)
	default:
		return fmt.Sprintf("%.2f %s", v, unit)
	}
}
