package scoring

import (
	"github.com/tidwall/gjson"

	"github.com/govscope/govscope/internal/utils"
	"github.com/govscope/govscope/pkg/graph"
)

// FieldStrategy extracts a collection correlation id from a raw monitor
// record. The platform has renamed this field across versions, so the engine
// probes an ordered list of strategies and adopts the first one that yields
// a non-empty value on any monitor.
type FieldStrategy interface {
	Name() string
	Extract(record string) (string, bool)
}

type jsonField string

func (f jsonField) Name() string { return string(f) }

func (f jsonField) Extract(record string) (string, bool) {
	v := gjson.Get(record, string(f)).String()
	return v, v != ""
}

// DefaultMonitorFieldStrategies lists the known correlation field names in
// priority order, newest platform version first.
func DefaultMonitorFieldStrategies() []FieldStrategy {
	return []FieldStrategy{
		jsonField("collectionUid"),
		jsonField("collection"),
		jsonField("collection_uid"),
		jsonField("collectionId"),
	}
}

// detectMonitorField returns the first strategy that extracts a value from
// at least one monitor. Deterministic: strategy order decides, never the
// order monitors happen to arrive in.
func detectMonitorField(monitors []graph.Monitor, strategies []FieldStrategy) (FieldStrategy, bool) {
	for _, s := range strategies {
		for _, m := range monitors {
			if _, ok := s.Extract(m.Raw); ok {
				return s, true
			}
		}
	}
	return nil, false
}

// MonitoredCollections resolves the correlation field and returns the set
// of collection ids that have at least one monitor attached, plus the name
// of the field that was adopted. The set is empty (and the name blank) when
// no candidate field matches any monitor.
func MonitoredCollections(monitors []graph.Monitor, strategies []FieldStrategy) (map[string]bool, string) {
	strategy, ok := detectMonitorField(monitors, strategies)
	if !ok {
		return map[string]bool{}, ""
	}
	monitored := make(map[string]bool)
	for _, m := range monitors {
		if id, found := strategy.Extract(m.Raw); found {
			monitored[id] = true
		}
	}
	return monitored, strategy.Name()
}

// monitoringScore correlates monitors to collections. Monitoring is treated
// as binary: the score is the coverage itself, with no threshold scaling.
func (e *Engine) monitoringScore(snap *graph.Snapshot) (DimensionScore, string) {
	ds := DimensionScore{Total: len(snap.Collections)}
	if ds.Total == 0 {
		ds.Coverage = 100
		ds.Score = 100
		return ds, ""
	}

	monitored, fieldName := MonitoredCollections(snap.Monitors, e.strategies)
	if fieldName == "" {
		return ds, ""
	}

	for _, col := range snap.Collections {
		if monitored[col.UID] {
			ds.Compliant++
		}
	}

	ds.Coverage = float64(ds.Compliant) / float64(ds.Total) * 100
	ds.Score = utils.Clamp(ds.Coverage, 0, 100)
	return ds, fieldName
}
