package scoring

import (
	"testing"

	"github.com/govscope/govscope/pkg/graph"
)

func TestFieldDetectionIsDeterministic(t *testing.T) {
	// Monitors expose two different non-empty candidate fields; the first
	// strategy in the priority list must win, regardless of record order.
	monitors := []graph.Monitor{
		{ID: "m1", Raw: `{"id":"m1","collection":"c-old"}`},
		{ID: "m2", Raw: `{"id":"m2","collectionUid":"c-new"}`},
	}

	monitored, field := MonitoredCollections(monitors, DefaultMonitorFieldStrategies())
	if field != "collectionUid" {
		t.Fatalf("expected first-priority field collectionUid, got %q", field)
	}
	if !monitored["c-new"] || monitored["c-old"] {
		t.Fatalf("only the adopted field's values should be collected: %v", monitored)
	}
}

func TestFieldDetectionFallsBack(t *testing.T) {
	monitors := []graph.Monitor{
		{ID: "m1", Raw: `{"id":"m1","collection_uid":"c1"}`},
	}
	_, field := MonitoredCollections(monitors, DefaultMonitorFieldStrategies())
	if field != "collection_uid" {
		t.Fatalf("expected fallback to collection_uid, got %q", field)
	}
}

func TestFieldDetectionNoMatch(t *testing.T) {
	monitors := []graph.Monitor{{ID: "m1", Raw: `{"id":"m1","name":"uptime"}`}}
	monitored, field := MonitoredCollections(monitors, DefaultMonitorFieldStrategies())
	if field != "" || len(monitored) != 0 {
		t.Fatalf("expected no match, got field %q set %v", field, monitored)
	}
}

func TestMonitoringScoreIsBinaryCoverage(t *testing.T) {
	snap := &graph.Snapshot{
		Collections: []graph.Collection{{UID: "c1"}, {UID: "c2"}, {UID: "c3"}, {UID: "c4"}},
		Monitors: []graph.Monitor{
			{ID: "m1", Raw: `{"collectionUid":"c1"}`},
			{ID: "m2", Raw: `{"collectionUid":"c3"}`},
			{ID: "m3", Raw: `{"collectionUid":"not-a-collection"}`},
		},
	}

	e := mustEngine(t, defaultScoring())
	ds, field := e.monitoringScore(snap)
	if field != "collectionUid" {
		t.Fatalf("unexpected field: %q", field)
	}
	if ds.Compliant != 2 || ds.Total != 4 {
		t.Fatalf("expected 2/4 monitored, got %d/%d", ds.Compliant, ds.Total)
	}
	if !approx(ds.Score, 50) || !approx(ds.Coverage, 50) {
		t.Fatalf("monitoring score must equal coverage with no threshold scaling, got %v/%v", ds.Score, ds.Coverage)
	}
}

func TestMonitoringScoreNoMonitors(t *testing.T) {
	snap := &graph.Snapshot{Collections: []graph.Collection{{UID: "c1"}}}
	e := mustEngine(t, defaultScoring())
	ds, field := e.monitoringScore(snap)
	if field != "" || ds.Score != 0 {
		t.Fatalf("no monitors means zero coverage, got score %v field %q", ds.Score, field)
	}
}
