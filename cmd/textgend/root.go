package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"textgend/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath     string
		corsOrigins string
		flags       config.Config
	)
	cmd := &cobra.Command{
		Use:           "textgend",
		Short:         "Serve text completions from a local GGUF model",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.CORSOrigins = splitCSV(corsOrigins)
			cfg, err := resolveConfig(cfgPath, flags)
			if err != nil {
				return err
			}
			log, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}

	// Flags default to TEXTGEND_* env vars; zero means "not set" so the
	// config file and built-in defaults still apply.
	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", os.Getenv("TEXTGEND_CONFIG"), "Config file (.yaml, .json or .toml)")
	f.StringVar(&flags.Addr, "addr", os.Getenv("TEXTGEND_ADDR"), "HTTP listen address (default :8080)")
	f.StringVar(&flags.ModelsDir, "models-dir", os.Getenv("TEXTGEND_MODELS_DIR"), "Directory to scan for *.gguf model files (default ~/models/llm)")
	f.StringVar(&flags.Model, "model", os.Getenv("TEXTGEND_MODEL"), "Model ID, name or path to serve (default: first model found)")
	f.IntVar(&flags.MaxTokens, "max-tokens", envInt("TEXTGEND_MAX_TOKENS"), "Server-wide ceiling on max_tokens (default 4096)")
	f.IntVar(&flags.RequestTimeoutSeconds, "request-timeout", envInt("TEXTGEND_REQUEST_TIMEOUT"), "Per-request timeout in seconds, negative disables (default 300)")
	f.IntVar(&flags.ContextSize, "ctx-size", envInt("TEXTGEND_CTX_SIZE"), "Model context size in tokens (default 2048)")
	f.IntVar(&flags.Threads, "threads", envInt("TEXTGEND_THREADS"), "Generation threads (default: library choice)")
	f.StringVar(&flags.LlamaServerURL, "llama-server-url", os.Getenv("TEXTGEND_LLAMA_SERVER_URL"), "Use a running llama.cpp server at this URL instead of loading the model in-process")
	f.Int64Var(&flags.MaxBodyBytes, "max-body-bytes", int64(envInt("TEXTGEND_MAX_BODY_BYTES")), "Maximum JSON body size (default 1MiB)")
	f.StringVar(&flags.LogLevel, "log-level", os.Getenv("TEXTGEND_SERVER_LOG_LEVEL"), "Log level: debug|info|warn|error (default info)")
	f.StringVar(&flags.LogFormat, "log-format", os.Getenv("TEXTGEND_LOG_FORMAT"), "Log format: console|json (default console)")
	f.BoolVar(&flags.CORSEnabled, "cors-enabled", os.Getenv("TEXTGEND_CORS_ENABLED") == "1", "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", os.Getenv("TEXTGEND_CORS_ORIGINS"), "Comma-separated allowed CORS origins (default *)")
	return cmd
}

// resolveConfig layers built-in defaults, the config file and flags.
func resolveConfig(path string, flags config.Config) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		file, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = cfg.Merge(file)
	}
	cfg = cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), fmt.Errorf("log level: %w", err)
		}
	}
	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
