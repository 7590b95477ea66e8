package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem type URIs for transport failures.
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeMethod          = "/errors/method-not-allowed"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeUnsupported     = "/errors/unsupported-format"
)

// Problem type URIs for pipeline failures.
const (
	TypeSchema              = "/errors/pipeline/schema"
	TypeInsufficientData    = "/errors/pipeline/insufficient-data"
	TypeInsufficientHistory = "/errors/pipeline/insufficient-history"
	TypeModelFit            = "/errors/pipeline/model-fit"
	TypeParsing             = "/errors/input/parsing"
)

const internalDetail = "An unexpected error occurred while processing your request"

type problemSpec struct {
	status int
	uri    string
	title  string
}

// AppError types the caller can act on. Anything absent is reported as a 500
// without the internal message.
var appErrorProblems = map[ErrorType]problemSpec{
	ErrTypeSchema:              {http.StatusUnprocessableEntity, TypeSchema, "Schema Not Resolved"},
	ErrTypeInsufficientData:    {http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data"},
	ErrTypeInsufficientHistory: {http.StatusUnprocessableEntity, TypeInsufficientHistory, "Insufficient History"},
	ErrTypeModelFit:            {http.StatusUnprocessableEntity, TypeModelFit, "Model Fit Failed"},
	ErrTypeParsing:             {http.StatusBadRequest, TypeParsing, "Unreadable Input"},
	ErrTypeValidation:          {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeNotFound:            {http.StatusNotFound, TypeNotFound, "Resource Not Found"},
}

var apiErrorTypes = map[string]string{
	"VALIDATION_FAILED":      TypeValidation,
	"INVALID_REQUEST":        TypeValidation,
	"MISSING_CONTENT_TYPE":   TypeValidation,
	"NOT_FOUND":              TypeNotFound,
	"RATE_LIMIT_EXCEEDED":    TypeRateLimit,
	"PAYLOAD_TOO_LARGE":      TypePayloadTooLarge,
	"UNSUPPORTED_FORMAT":     TypeUnsupported,
	"UNSUPPORTED_MEDIA_TYPE": TypeUnsupported,
	"SERVICE_UNAVAILABLE":    TypeServiceDown,
}

// ErrorHandler renders every failure as RFC 7807 problem JSON tagged with the
// request ID.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds stack traces to
// 5xx responses and belongs in development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes it as problem JSON.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", getStackTrace())
		}
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	h.write(w, r, problem)
}

// ErrorToProblem maps err onto a problem document without writing it.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The analysis did not finish in time and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		uri, ok := apiErrorTypes[apiErr.ErrorCode]
		if !ok {
			uri = TypeInternal
		}
		problem := NewProblemDetails(apiErr.StatusCode, uri, http.StatusText(apiErr.StatusCode), apiErr.Message, r.URL.Path).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		spec, ok := appErrorProblems[appErr.Type]
		if !ok {
			return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, r.URL.Path).
				WithExtension("error_type", string(appErr.Type))
		}
		problem := NewProblemDetails(spec.status, spec.uri, spec.title, appErr.Message, r.URL.Path).
			WithExtension("error_type", string(appErr.Type))
		for k, v := range appErr.Context {
			problem.WithExtension(k, v)
		}
		return problem
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, r.URL.Path)
}

// HandlePanic answers a recovered panic with a 500 problem.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, r.URL.Path)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	h.write(w, r, problem)
}

// NotFound is the router's unmatched-route handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed is the router's wrong-method handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path))
}

// RecoveryMiddleware turns handler panics into problem responses.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func (h *ErrorHandler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	problem.WithExtension("trace_id", middleware.GetReqID(r.Context()))
	if err := render.Render(w, r, problem); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render problem", slog.String("error", err.Error()))
	}
}

func getStackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
