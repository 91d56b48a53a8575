package pipeline

import (
	"context"
	"errors"

	"github.com/govscope/govscope/pkg/graph"
	"github.com/govscope/govscope/pkg/harvest"
	"github.com/govscope/govscope/pkg/scoring"
	"github.com/govscope/govscope/pkg/violations"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Sink receives one cycle's output. Implementations are expected to persist
// atomically; the sqlite store does so in a single transaction.
type Sink interface {
	StoreMetrics(ctx context.Context, snap *graph.Snapshot, summary *scoring.Summary, vs []violations.Violation) error
}

// Config holds everything Run needs for a single cycle.
type Config struct {
	Harvester *harvest.Harvester
	Engine    *scoring.Engine
	Detector  *violations.Detector
	Sink      Sink   // optional; nil = compute only
	Log       Logger // optional; nil = no logging
}

// Result is the outcome of one harvest-and-score cycle.
type Result struct {
	Snapshot   *graph.Snapshot
	Summary    *scoring.Summary
	Violations []violations.Violation
}

// Run executes one full cycle: harvest, score, detect, persist. A critical
// harvest failure propagates and nothing is persisted for the cycle; the
// scheduler upstream is expected to retry on its next invocation.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	if cfg.Harvester == nil || cfg.Engine == nil || cfg.Detector == nil {
		return nil, errors.New("pipeline: harvester, engine and detector are required")
	}

	snap, err := cfg.Harvester.CollectAll(ctx)
	if err != nil {
		log.Errorf("Harvest failed, skipping scoring and persistence for this cycle: %v", err)
		return nil, err
	}

	summary := cfg.Engine.Score(snap)
	vs := cfg.Detector.Detect(snap)

	if cfg.Sink != nil {
		if err := cfg.Sink.StoreMetrics(ctx, snap, summary, vs); err != nil {
			log.Errorf("Could not persist metrics for run %s: %v", snap.RunID, err)
			return nil, err
		}
	}

	log.Infof("Cycle %s complete: overall score %.1f, %d violations", snap.RunID, summary.Overall, len(vs))

	return &Result{Snapshot: snap, Summary: summary, Violations: vs}, nil
}
