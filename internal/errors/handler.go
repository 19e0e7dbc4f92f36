package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/render"

	"pensim/internal/infrastructure"
)

// ErrorHandler provides centralized error handling for HTTP transport.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds.
// Not-found outcomes are expected and logged at info; everything else is an
// error.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())

	if IsNotFound(err) {
		h.logger.InfoContext(r.Context(), "resource not found",
			slog.String("path", r.URL.Path),
			slog.String("trace_id", traceID),
		)
	} else {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var ae *AppError
	if errors.As(err, &ae) {
		return h.appErrorToProblem(ae, r)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func (h *ErrorHandler) appErrorToProblem(ae *AppError, r *http.Request) *ProblemDetails {
	var problem *ProblemDetails
	switch ae.Type {
	case ErrTypeNotFound:
		problem = NewProblemDetails(
			http.StatusNotFound, TypeNotFound,
			"Resource Not Found", ae.Message, r.URL.Path)
	case ErrTypeTimeout:
		problem = NewProblemDetails(
			http.StatusGatewayTimeout, TypeTimeout,
			"Simulation Timeout", ae.Message, r.URL.Path,
		).WithExtension("retryable", true)
	case ErrTypeUpstream:
		problem = NewProblemDetails(
			http.StatusBadGateway, TypeUpstream,
			"Upstream Failure", ae.Message, r.URL.Path)
	case ErrTypeValidation:
		problem = NewProblemDetails(
			http.StatusBadRequest, TypeValidation,
			"Validation Failed", ae.Message, r.URL.Path)
	default:
		problem = NewProblemDetails(
			http.StatusInternalServerError, TypeInternal,
			"Internal Server Error", ae.Message, r.URL.Path)
	}

	problem.WithExtension("error_code", string(ae.Type))
	for k, v := range ae.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// HandlePanic recovers from panics and returns an RFC 7807 error.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", traceID)

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error for unmatched routes.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		"Method "+r.Method+" is not allowed for this endpoint",
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
