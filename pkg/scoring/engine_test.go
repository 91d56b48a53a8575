package scoring

import (
	"math"
	"testing"

	"github.com/govscope/govscope/pkg/config"
	"github.com/govscope/govscope/pkg/graph"
)

func defaultScoring() config.Scoring {
	return config.Scoring{
		Weights: config.Weights{
			Documentation: 0.3,
			Testing:       0.3,
			Monitoring:    0.2,
			Organization:  0.2,
		},
		MinDocumentationCoverage: 80,
		MinTestCoverage:          60,
	}
}

func mustEngine(t *testing.T, cfg config.Scoring) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return e
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func endpoint(documented, tested bool) graph.Item {
	it := graph.Item{Kind: graph.KindEndpoint, Request: &graph.Request{Method: "GET"}}
	if documented {
		it.Description = "documented"
		it.Responses = []graph.Response{{Name: "ok"}}
	}
	if tested {
		it.Events = []graph.Event{{Listen: "test", Script: []string{"pm.test()"}}}
	}
	return it
}

func TestScenarioHalfCovered(t *testing.T) {
	// One collection, two endpoints: one documented and tested, one neither.
	snap := &graph.Snapshot{
		Collections: []graph.Collection{{
			UID:   "c1",
			Name:  "c1",
			Items: []graph.Item{endpoint(true, true), endpoint(false, false)},
		}},
	}

	e := mustEngine(t, defaultScoring())
	s := e.Score(snap)

	if !approx(s.Documentation.Coverage, 50) {
		t.Fatalf("expected 50%% documentation coverage, got %v", s.Documentation.Coverage)
	}
	if !approx(s.Testing.Coverage, 50) {
		t.Fatalf("expected 50%% test coverage, got %v", s.Testing.Coverage)
	}

	// Threshold-relative scaling: 50/80*100 and 50/60*100.
	if !approx(s.Documentation.Score, 62.5) {
		t.Fatalf("expected documentation score 62.5, got %v", s.Documentation.Score)
	}
	if !approx(s.Testing.Score, 50.0/60.0*100) {
		t.Fatalf("expected testing score %.4f, got %v", 50.0/60.0*100, s.Testing.Score)
	}
}

func TestCoverageSaturatesAtThreshold(t *testing.T) {
	// 9 of 10 endpoints documented = 90% coverage, above the 80% minimum.
	items := []graph.Item{}
	for i := 0; i < 9; i++ {
		items = append(items, endpoint(true, false))
	}
	items = append(items, endpoint(false, false))
	snap := &graph.Snapshot{Collections: []graph.Collection{{UID: "c1", Items: items}}}

	e := mustEngine(t, defaultScoring())
	s := e.Score(snap)
	if !approx(s.Documentation.Score, 100) {
		t.Fatalf("coverage above the threshold must saturate at 100, got %v", s.Documentation.Score)
	}
	if !approx(s.Documentation.Coverage, 90) {
		t.Fatalf("coverage itself should stay 90, got %v", s.Documentation.Coverage)
	}
}

func TestEmptyGraphIsVacuouslyCompliant(t *testing.T) {
	e := mustEngine(t, defaultScoring())
	s := e.Score(&graph.Snapshot{})
	if !approx(s.Documentation.Score, 100) || !approx(s.Testing.Score, 100) || !approx(s.Monitoring.Score, 100) {
		t.Fatalf("empty graph should score 100 everywhere, got %+v", s)
	}
}

func TestWeightInvariantRejected(t *testing.T) {
	for _, sum := range []float64{0.9, 1.1} {
		cfg := defaultScoring()
		cfg.Weights = config.Weights{
			Documentation: sum - 0.6,
			Testing:       0.2,
			Monitoring:    0.2,
			Organization:  0.2,
		}
		if _, err := NewEngine(cfg); err == nil {
			t.Fatalf("weights summing to %v must be rejected", sum)
		}
	}
}

func TestOverallIsWeightedSum(t *testing.T) {
	snap := &graph.Snapshot{
		Collections: []graph.Collection{{
			UID:   "c1",
			Name:  "PAY-BILLING-API[SPEC]",
			Items: []graph.Item{endpoint(true, true)},
		}},
		Monitors: []graph.Monitor{{ID: "m1", Raw: `{"id":"m1","collectionUid":"c1"}`}},
		Workspaces: []graph.Workspace{
			{ID: "w1", Type: "private"}, {ID: "w2", Type: "private"},
			{ID: "w3", Type: "private"}, {ID: "w4", Type: "private"},
			{ID: "w5", Type: "team"},
		},
	}

	e := mustEngine(t, defaultScoring())
	s := e.Score(snap)

	want := s.Documentation.Score*0.3 + s.Testing.Score*0.3 + s.Monitoring.Score*0.2 + s.Organization.Score*0.2
	if !approx(s.Overall, want) {
		t.Fatalf("overall %v != weighted sum %v", s.Overall, want)
	}
	if s.Overall < 0 || s.Overall > 100 {
		t.Fatalf("overall out of range: %v", s.Overall)
	}
}
