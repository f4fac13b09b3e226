package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"textgend/pkg/types"
)

// statusClientClosed is logged when the client went away before a response.
const statusClientClosed = 499

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool
	Completions(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error)
	StreamCompletions(ctx context.Context, req types.CompletionRequest, emit func(types.CompletionChunk) error) (types.CompletionResponse, error)
	CountTokens(ctx context.Context, prompt string) (int, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// text/event-stream is not in the default type list, so SSE passes through
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		origins, methods, headers := corsDefaults()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	h := &handlers{svc: svc}
	r.Group(func(r chi.Router) {
		r.Use(inflight)
		r.Post("/v1/completions", h.completions)
		r.Post("/completions", h.completions)
		r.Post("/v1/tokenize", h.tokenize)
	})
	r.Get("/v1/models", h.models)
	r.Get("/status", h.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// completions godoc
//
//	@Summary		Create a completion
//	@Description	Generates text for a prompt. With stream=true the response is a text/event-stream of CompletionChunk events terminated by [DONE]; finish_reason is JSON null in every chunk but the last, and in the last too when generation ended without a terminal token (the JSON response reports "null" then).
//	@Tags			completions
//	@Accept			json
//	@Produce		json
//	@Produce		text/event-stream
//	@Param			request	body		types.CompletionRequest	true	"Completion request"
//	@Success		200		{object}	types.CompletionResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		415		{object}	types.ErrorResponse
//	@Failure		503		{object}	types.ErrorResponse
//	@Failure		504		{object}	types.ErrorResponse
//	@Router			/v1/completions [post]
func (h *handlers) completions(w http.ResponseWriter, r *http.Request) {
	rl := newRequestLog(r, "completion")
	req := types.DefaultCompletionRequest()
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rl.begin(req.Stream)

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	if req.Stream {
		h.stream(ctx, w, r, req, rl)
		return
	}
	resp, err := h.svc.Completions(ctx, req)
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	recordCompletion(resp, false)
	writeJSON(w, resp)
	rl.end(http.StatusOK, nil)
}

func (h *handlers) stream(ctx context.Context, w http.ResponseWriter, r *http.Request, req types.CompletionRequest, rl *requestLog) {
	sse := newSSEWriter(w, rl.lvl >= LevelDebug)
	resp, err := h.svc.StreamCompletions(ctx, req, func(c types.CompletionChunk) error {
		return sse.event(c)
	})
	if err != nil {
		if !sse.started {
			h.fail(w, r, rl, err)
			return
		}
		if clientGone(r) {
			rl.end(statusClientClosed, err)
			return
		}
		// headers are out; report in-band
		status := statusFor(err)
		_ = sse.event(types.ErrorResponse{Error: err.Error(), Code: status})
		_ = sse.done()
		rl.end(status, err)
		return
	}
	recordCompletion(resp, true)
	_ = sse.done()
	rl.end(http.StatusOK, nil)
}

// tokenize godoc
//
//	@Summary	Count prompt tokens
//	@Tags		completions
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.TokenizeRequest	true	"Prompt to tokenize"
//	@Success	200		{object}	types.TokenizeResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	503		{object}	types.ErrorResponse
//	@Router		/v1/tokenize [post]
func (h *handlers) tokenize(w http.ResponseWriter, r *http.Request) {
	rl := newRequestLog(r, "tokenize")
	var req types.TokenizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rl.begin(false)
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	n, err := h.svc.CountTokens(ctx, strings.Join(req.Prompt, ""))
	if err != nil {
		h.fail(w, r, rl, err)
		return
	}
	writeJSON(w, types.TokenizeResponse{Count: n})
	rl.end(http.StatusOK, nil)
}

// models godoc
//
//	@Summary	List models
//	@Tags		models
//	@Produce	json
//	@Success	200	{object}	types.ModelsResponse
//	@Router		/v1/models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	data := h.svc.ListModels()
	if data == nil {
		data = []types.Model{}
	}
	writeJSON(w, types.ModelsResponse{Object: "list", Data: data})
}

// status godoc
//
//	@Summary	Server status
//	@Tags		status
//	@Produce	json
//	@Success	200	{object}	types.StatusResponse
//	@Router		/status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// fail writes the error response for err, or nothing when the client is gone.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, rl *requestLog, err error) {
	if clientGone(r) {
		rl.end(statusClientClosed, err)
		return
	}
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		IncrementUnavailable(routePatternOrPath(r))
	}
	writeJSONError(w, status, err.Error())
	rl.end(status, err)
}

func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil || serverBaseCtx.Err() != nil
}

// decodeJSON checks the content type and decodes the size-limited body into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		// exactly one JSON value per body
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return true
		}
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusBadRequest, "request body too large")
		return false
	}
	writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}
