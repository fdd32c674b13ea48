package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"seminar/internal/export"
	"seminar/internal/metrics"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxAuditBody    = 64 << 10
	redacted        = "***"
)

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint, strconv.Itoa(recorder.status))

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Str("request_id", requestIDFrom(r.Context())).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("handler panic")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(adminHeader string, next http.Handler) http.Handler {
	allowHeaders := "Content-Type, " + adminHeader + ", " + requestIDHeader
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, "+requestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) adminGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Admin.Authenticate(r.Header.Get(s.adminHeader)); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r)
	}
}

func (s *HTTPServer) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// audit records the request to the access log after the handler ran:
// client address, method, path, status and the request arguments.
func (s *HTTPServer) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.AccessLog == nil {
			next(w, r)
			return
		}

		var params string
		if !isMultipart(r) && r.Body != nil && r.Body != http.NoBody {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
			if err == nil {
				rest := r.Body
				r.Body = struct {
					io.Reader
					io.Closer
				}{io.MultiReader(bytes.NewReader(body), rest), rest}
				if len(body) > maxAuditBody {
					body = body[:maxAuditBody]
				}
				params = redactJSON(body)
			}
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)

		if isMultipart(r) {
			params = summarizeMultipart(r)
		}
		if params == "" && r.URL.RawQuery != "" {
			params = r.URL.RawQuery
		}

		s.deps.AccessLog.Info().
			Str(export.FieldIP, clientKey(r)).
			Str(export.FieldMethod, r.Method).
			Str(export.FieldURI, r.URL.Path).
			Int(export.FieldStatus, recorder.status).
			Str(export.FieldParams, params).
			Str("request_id", requestIDFrom(r.Context())).
			Send()
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// redactJSON re-encodes a JSON document with password fields masked. Non-JSON
// bodies are returned as text.
func redactJSON(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return string(trimmed)
	}
	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return ""
	}
	return string(out)
}

// redactValue masks every "password" key at any depth.
func redactValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, inner := range v {
			if strings.EqualFold(k, "password") {
				v[k] = redacted
				continue
			}
			v[k] = redactValue(inner)
		}
	case []any:
		for i, inner := range v {
			v[i] = redactValue(inner)
		}
	}
	return v
}

// summarizeMultipart lists form values and replaces file contents with
// "file(name: x, size: n)".
func summarizeMultipart(r *http.Request) string {
	form := r.MultipartForm
	if form == nil {
		return ""
	}

	out := make(map[string]any, len(form.Value)+len(form.File))
	for k, vs := range form.Value {
		if strings.EqualFold(k, "password") {
			out[k] = redacted
			continue
		}
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	for k, files := range form.File {
		names := make([]string, 0, len(files))
		for _, fh := range files {
			names = append(names, fmt.Sprintf("file(name: %s, size: %d)", fh.Filename, fh.Size))
		}
		out[k] = names
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(raw)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
