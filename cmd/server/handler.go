package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/robtot/skeleton-go/pkg/logger"
)

// HandlerFunc is a route handler whose error is turned into a 500 response.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type HelloResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	Log       *logger.Logger
	BodyLimit int64
}

func NewHandler(l *logger.Logger, bodyLimit int64) *Handler {
	return &Handler{
		Log:       l,
		BodyLimit: bodyLimit,
	}
}

func (h *Handler) HandleHello(w http.ResponseWriter, r *http.Request) error {
	return h.respond(w, r, http.StatusOK, HelloResponse{Msg: "Hello World!"})
}

// Wrap adapts fn to http.HandlerFunc, sending any returned error to the error handler.
func (h *Handler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.handleError(w, r, err)
		}
	}
}

// respond writes payload as JSON and logs the response line.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	h.Log.Response(requestFromContext(r), status, payload)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
	return nil
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)
	h.writeError(w, err)
}

func (h *Handler) logError(r *http.Request, err error) {
	req := requestFromContext(r)
	h.Log.Error(`error: "%s" for request: %s %s with body: %s`, err.Error(), req.Method, req.Path, logger.BodyString(req.Body))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	data, _ := json.Marshal(ErrorResponse{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(data)
}

// Recover turns panics in next into error responses. A panic after the
// response has started is only logged.
func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = withRequest(r)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			h.logError(r, err)
			if ww.Status() != 0 || ww.BytesWritten() > 0 {
				return
			}
			h.writeError(ww, err)
		}()
		next.ServeHTTP(ww, r)
	})
}
