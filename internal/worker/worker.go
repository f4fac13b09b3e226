// Package worker runs the single generation loop that serves requests
// dispatched by the manager, one at a time, on top of a model Backend.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"textgend/internal/manager"
	"textgend/internal/queue"
)

var (
	errBudgetExhausted = errors.New("max tokens reached")
	errStopSequence    = errors.New("stop sequence matched")
)

// Source hands out dispatched requests; *manager.Manager implements it.
type Source interface {
	Next(ctx context.Context) (*manager.ThreadRequest, error)
}

// Worker consumes requests serially and is the sole writer of their replies.
type Worker struct {
	backend Backend
	log     zerolog.Logger
}

func New(b Backend, log zerolog.Logger) *Worker {
	return &Worker{backend: b, log: log}
}

// Run serves requests from src until src is closed and drained (returns nil)
// or ctx is done (returns ctx.Err()).
func (w *Worker) Run(ctx context.Context, src Source) error {
	for {
		tr, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return err
		}
		w.serve(tr)
	}
}

// serve handles one request. Reply channels are always closed on return;
// failures leave the stream without a terminal token.
func (w *Worker) serve(tr *manager.ThreadRequest) {
	defer tr.Close()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Str("panic", fmt.Sprint(r)).Msg("worker: request panicked")
		}
	}()
	ctx := tr.Context()
	if ctx.Err() != nil {
		w.log.Debug().Msg("worker: skipping abandoned request")
		return
	}
	switch req := tr.Request().(type) {
	case *manager.GenerateRequest:
		w.generate(ctx, tr, req)
	case *manager.TokenizeRequest:
		w.tokenize(ctx, tr, req)
	default:
		w.log.Error().Str("kind", fmt.Sprintf("%T", req)).Msg("worker: unsupported request kind")
	}
}

func (w *Worker) tokenize(ctx context.Context, tr *manager.ThreadRequest, req *manager.TokenizeRequest) {
	n, err := w.backend.CountTokens(ctx, req.Prompt)
	if err != nil {
		w.log.Error().Err(err).Msg("worker: tokenize failed")
		return
	}
	if tr.SendPromptTokens(n) != nil {
		return
	}
	_ = tr.SendToken(manager.EndOfText)
}

func (w *Worker) generate(ctx context.Context, tr *manager.ThreadRequest, req *manager.GenerateRequest) {
	n, err := w.backend.CountTokens(ctx, req.Prompt)
	if err != nil {
		w.log.Error().Err(err).Msg("worker: tokenize prompt failed")
		return
	}
	if tr.SendPromptTokens(n) != nil {
		return
	}
	if req.MaxTokens <= 0 {
		_ = tr.SendToken(manager.CutOff)
		return
	}

	stop := newStopMatcher(req.Stop)
	send := func(frags []string) error {
		for _, f := range frags {
			if err := tr.SendToken(manager.TextToken(f)); err != nil {
				return err
			}
		}
		return nil
	}
	produced := 0
	err = w.backend.Generate(ctx, req, func(fragment string) error {
		produced++
		req.Occurrences[fragment]++
		emit, hit := stop.push(fragment)
		if err := send(emit); err != nil {
			return err
		}
		if hit {
			return errStopSequence
		}
		if produced >= req.MaxTokens {
			return errBudgetExhausted
		}
		return nil
	})

	switch {
	case errors.Is(err, errStopSequence):
		_ = tr.SendToken(manager.EndOfText)
	case err == nil:
		if send(stop.flush()) == nil {
			_ = tr.SendToken(manager.EndOfText)
		}
	case errors.Is(err, errBudgetExhausted):
		if send(stop.flush()) == nil {
			_ = tr.SendToken(manager.CutOff)
		}
	case errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
		w.log.Debug().Int("produced", produced).Msg("worker: caller abandoned request")
	default:
		w.log.Error().Err(err).Int("produced", produced).Msg("worker: generation failed")
	}
}
