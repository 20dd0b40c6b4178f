package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/robtot/skeleton-go/pkg/logger"
	"github.com/robtot/skeleton-go/pkg/model"
	"github.com/valyala/fastjson"
)

var (
	errEntityTooLarge = errors.New("request entity too large")
	errBodyNotJSON    = errors.New("JSON body must be an object or array")
)

type requestKey struct{}

var parserPool fastjson.ParserPool

// requestFromContext returns the request as captured by ParseBody. Requests
// that never went through it have no body.
func requestFromContext(r *http.Request) model.Request {
	if req, ok := r.Context().Value(requestKey{}).(*model.Request); ok {
		return *req
	}
	return model.Request{Method: r.Method, Path: r.URL.Path}
}

// withRequest attaches a request record to r, reusing one attached by an
// outer middleware so that both see the parsed body.
func withRequest(r *http.Request) (*http.Request, *model.Request) {
	if req, ok := r.Context().Value(requestKey{}).(*model.Request); ok {
		return r, req
	}
	req := &model.Request{Method: r.Method, Path: r.URL.Path}
	return r.WithContext(context.WithValue(r.Context(), requestKey{}, req)), req
}

// ParseBody reads JSON request bodies into the request record. Requests
// that are not JSON get an empty object body.
func (h *Handler) ParseBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, req := withRequest(r)
		req.Body = map[string]any{}

		if isJSON(r.Header.Get("Content-Type")) && r.Body != nil {
			body, err := readJSONBody(w, r, h.BodyLimit)
			if err != nil {
				h.handleError(w, r, err)
				return
			}
			if body != nil {
				req.Body = body
			}
		}

		next.ServeHTTP(w, r)
	})
}

// LogRequests logs every request before it is handled.
func (h *Handler) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := requestFromContext(r)
		h.Log.Info("%s %s body=%s", req.Method, req.Path, logger.BodyString(req.Body))
		next.ServeHTTP(w, r)
	})
}

// readJSONBody returns the compacted body, or nil when the body is empty.
// The raw bytes are put back on r.Body for later readers.
func readJSONBody(w http.ResponseWriter, r *http.Request, limit int64) (json.RawMessage, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errEntityTooLarge
		}
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(data))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if t := v.Type(); t != fastjson.TypeObject && t != fastjson.TypeArray {
		return nil, errBodyNotJSON
	}
	return json.RawMessage(v.MarshalTo(nil)), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
