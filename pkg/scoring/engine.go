package scoring

import (
	"github.com/sirupsen/logrus"

	"github.com/govscope/govscope/internal/utils"
	"github.com/govscope/govscope/pkg/config"
	"github.com/govscope/govscope/pkg/graph"
)

// DimensionScore is one governance dimension: a 0-100 score, the raw
// coverage percentage it was derived from, and the supporting counts.
type DimensionScore struct {
	Score     float64
	Coverage  float64
	Compliant int
	Total     int
}

// OrganizationScore combines the workspace-ratio and naming-convention
// sub-scores 60/40.
type OrganizationScore struct {
	Score        float64
	RatioScore   float64
	NamingScore  float64
	PrivateRatio float64
}

// Summary is the full scoring output for one snapshot.
type Summary struct {
	Documentation DimensionScore
	Testing       DimensionScore
	Monitoring    DimensionScore
	Organization  OrganizationScore
	Overall       float64

	// MonitorField records which correlation field the detection heuristic
	// adopted, for auditability.
	MonitorField string

	Users UserReport
}

// Engine computes the weighted governance dimensions over a harvested
// snapshot. Construction fails if the configured weights do not sum to 1.0.
type Engine struct {
	cfg        config.Scoring
	strategies []FieldStrategy
	log        *logrus.Logger
}

func NewEngine(cfg config.Scoring) (*Engine, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		strategies: DefaultMonitorFieldStrategies(),
		log:        utils.Log,
	}, nil
}

// Score walks the snapshot and produces all dimension scores plus the
// weighted overall. The snapshot is read-only to the engine.
func (e *Engine) Score(snap *graph.Snapshot) *Summary {
	s := &Summary{}

	s.Documentation = e.coverageScore(snap, graph.DocumentedEndpoints, e.cfg.MinDocumentationCoverage)
	s.Testing = e.coverageScore(snap, graph.TestedEndpoints, e.cfg.MinTestCoverage)
	s.Monitoring, s.MonitorField = e.monitoringScore(snap)
	s.Organization = e.organizationScore(snap)
	s.Users = ReconcileUsers(snap, DefaultUserSources())

	w := e.cfg.Weights
	s.Overall = utils.Clamp(
		s.Documentation.Score*w.Documentation+
			s.Testing.Score*w.Testing+
			s.Monitoring.Score*w.Monitoring+
			s.Organization.Score*w.Organization,
		0, 100)

	e.log.WithFields(logrus.Fields{
		"documentation": s.Documentation.Score,
		"testing":       s.Testing.Score,
		"monitoring":    s.Monitoring.Score,
		"organization":  s.Organization.Score,
		"overall":       s.Overall,
	}).Debug("Dimension scores computed")

	return s
}

// coverageScore is the shared shape of the documentation and test
// dimensions: recursive endpoint counts, then a threshold-relative score
// that saturates at 100 once coverage meets the configured minimum.
func (e *Engine) coverageScore(snap *graph.Snapshot, count func([]graph.Item) int, threshold float64) DimensionScore {
	ds := DimensionScore{}
	for _, col := range snap.Collections {
		ds.Total += graph.TotalEndpoints(col.Items)
		ds.Compliant += count(col.Items)
	}
	if ds.Total == 0 {
		// Nothing to cover: vacuously compliant.
		ds.Coverage = 100
		ds.Score = 100
		return ds
	}
	ds.Coverage = float64(ds.Compliant) / float64(ds.Total) * 100
	if threshold <= 0 {
		ds.Score = 100
		return ds
	}
	ds.Score = utils.Clamp(ds.Coverage/threshold*100, 0, 100)
	return ds
}
