// Package sniff runs the observe-diff-synthesize pipeline: snapshot a
// domain, wait for another process to rewrite it, snapshot again, and turn
// the difference into defaults commands.
package sniff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bolasblack/prefsniff/internal/convert"
	"github.com/bolasblack/prefsniff/internal/defaults"
	"github.com/bolasblack/prefsniff/internal/diff"
	"github.com/bolasblack/prefsniff/internal/watch"
)

// Result is the outcome of one observation.
type Result struct {
	// ID identifies the observation in logs.
	ID       string
	Domain   string
	Before   *convert.Snapshot
	After    *convert.Snapshot
	Delta    *diff.Delta
	Commands []defaults.Command
}

// Sniffer owns the collaborators of the pipeline. Each call is independent;
// nothing is carried between observations.
type Sniffer struct {
	Converter  convert.Converter
	Stabilizer watch.Stabilizer
	Synth      defaults.Synthesizer
	Logger     *zap.Logger
}

// Once snapshots path, waits for it to change, and returns the commands
// reproducing the change. Synthesis errors are returned together with the
// partial result so callers can still show the delta.
func (s *Sniffer) Once(ctx context.Context, path string) (*Result, error) {
	before, err := s.Converter.Convert(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := s.Stabilizer.WaitStable(ctx, path); err != nil {
		return nil, err
	}

	after, err := s.Converter.Convert(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s after change: %w", path, err)
	}

	return s.Compare(before, after)
}

// Compare diffs two snapshots without waiting. The domain is taken from the
// second snapshot.
func (s *Sniffer) Compare(before, after *convert.Snapshot) (*Result, error) {
	res := &Result{
		ID:     uuid.NewString(),
		Domain: after.Domain,
		Before: before,
		After:  after,
		Delta:  diff.ComputeDelta(before.Tree, after.Tree),
	}
	log := s.logger().With(zap.String("id", res.ID), zap.String("domain", res.Domain))
	log.Debug("computed delta",
		zap.Int("added", len(res.Delta.Added)),
		zap.Int("removed", len(res.Delta.Removed)),
		zap.Int("modified", len(res.Delta.Modified)))

	cmds, err := s.Synth.Synthesize(res.Domain, res.Delta)
	if err != nil {
		log.Warn("synthesis failed", zap.Error(err))
		return res, fmt.Errorf("synthesize %s: %w", res.Domain, err)
	}
	res.Commands = cmds
	log.Debug("synthesized commands", zap.Int("count", len(cmds)))
	return res, nil
}

// Handler receives each observation in monitor mode. err is a synthesis
// error for that observation; returning a non-nil error stops Monitor.
type Handler func(res *Result, err error) error

// Monitor repeats Once until ctx is cancelled, the handler returns an error,
// or reading/watching fails. Cancellation is a clean stop and returns nil.
func (s *Sniffer) Monitor(ctx context.Context, path string, handle Handler) error {
	for {
		res, err := s.Once(ctx, path)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && res == nil {
			return err
		}
		if herr := handle(res, err); herr != nil {
			if errors.Is(herr, ErrStop) {
				return nil
			}
			return herr
		}
	}
}

// ErrStop may be returned by a Handler to end monitoring without error.
var ErrStop = errors.New("sniff: stop monitoring")

func (s *Sniffer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
