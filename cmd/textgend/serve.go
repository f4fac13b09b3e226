package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"textgend/internal/config"
	"textgend/internal/httpapi"
	"textgend/internal/manager"
	"textgend/internal/registry"
	"textgend/internal/worker"
	"textgend/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// openBackend loads the model for the generation worker.
var openBackend = func(model types.Model, cfg config.Config, log zerolog.Logger) (worker.Backend, error) {
	if cfg.LlamaServerURL != "" {
		return worker.NewLlamaServerBackend(cfg.LlamaServerURL, os.Getenv("TEXTGEND_LLAMA_API_KEY"), 5*time.Second, log), nil
	}
	return worker.NewLlamaBackend(model.Path, cfg.ContextSize, cfg.Threads)
}

// serve runs the HTTP server and the generation worker until ctx is done.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		// --model may still point at a file outside the directory
		log.Warn().Err(err).Str("models_dir", cfg.ModelsDir).Msg("scan models dir")
	}
	model, err := registry.Resolve(reg, cfg.Model)
	if err != nil {
		if cfg.LlamaServerURL == "" {
			return err
		}
		// the server owns the model; only its name is needed here
		model = types.Model{ID: cmp.Or(cfg.Model, "llama-server"), Object: "model"}
		model.Name = model.ID
	}

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:       reg,
		Model:          model.ID,
		MaxTokens:      cfg.MaxTokens,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Logger:         log,
		Events:         manager.NewLogPublisher(log.With().Str("component", "manager").Logger()),
	})

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		runWorker(ctx, mgr, model, cfg, log.With().Str("component", "worker").Logger())
	}()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model", model.ID).Int("max_tokens", cfg.MaxTokens).Msg("textgend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	mgr.Close()
	select {
	case <-workerDone:
	case <-sctx.Done():
		log.Warn().Msg("worker still busy at shutdown")
	}
	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// runWorker loads the model, then serves dispatched requests until the
// manager is closed or ctx ends. Load failures put the manager in the error state.
func runWorker(ctx context.Context, mgr *manager.Manager, model types.Model, cfg config.Config, log zerolog.Logger) {
	start := time.Now()
	b, err := openBackend(model, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("path", model.Path).Msg("load model")
		mgr.MarkFailed(err)
		return
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}()
	log.Info().Str("model", model.ID).Dur("load", time.Since(start)).Msg("model loaded")
	mgr.MarkReady(model.ID)

	if err := worker.New(b, log).Run(ctx, mgr); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped")
		mgr.MarkFailed(err)
	}
}
