package config

import (
	"errors"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// API holds the platform client settings.
type API struct {
	BaseURL           string
	Key               string
	RequestsPerMinute int
	TimeoutSeconds    int
	MaxRetries        int
}

// Harvest holds scope toggles and per-category analysis caps; -1 means
// unlimited.
type Harvest struct {
	WorkspaceCap          int
	CollectionCap         int
	FetchTags             bool
	IncludePrivateNetwork bool
}

// Weights are the dimension weights for the overall governance score. They
// must sum to 1.0; configurations that do not are rejected at startup.
type Weights struct {
	Documentation float64
	Testing       float64
	Monitoring    float64
	Organization  float64
}

func (w Weights) Sum() float64 {
	return w.Documentation + w.Testing + w.Monitoring + w.Organization
}

// Scoring holds the weights and coverage thresholds.
type Scoring struct {
	Weights                  Weights
	MinDocumentationCoverage float64
	MinTestCoverage          float64
}

type Config struct {
	API     API
	Harvest Harvest
	Scoring Scoring
	DBPath  string
}

const weightTolerance = 1e-9

// Validate runs the startup checks. Configuration problems are fatal here
// and never surface at runtime.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.API,
		validation.Field(&c.API.BaseURL, validation.Required),
		validation.Field(&c.API.Key, validation.Required),
		validation.Field(&c.API.RequestsPerMinute, validation.Required, validation.Min(1)),
		validation.Field(&c.API.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.API.MaxRetries, validation.Min(1)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Harvest,
		validation.Field(&c.Harvest.WorkspaceCap, validation.Min(-1)),
		validation.Field(&c.Harvest.CollectionCap, validation.Min(-1)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Scoring,
		validation.Field(&c.Scoring.MinDocumentationCoverage, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&c.Scoring.MinTestCoverage, validation.Min(0.0), validation.Max(100.0)),
	); err != nil {
		return err
	}
	return c.Scoring.Weights.Validate()
}

// Validate rejects weight sets that do not sum to 1.0. Rejection (rather
// than silent normalization) keeps the configured weights authoritative.
func (w Weights) Validate() error {
	if err := validation.ValidateStruct(&w,
		validation.Field(&w.Documentation, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&w.Testing, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&w.Monitoring, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&w.Organization, validation.Min(0.0), validation.Max(1.0)),
	); err != nil {
		return err
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return errors.New("scoring weights must sum to 1.0")
	}
	return nil
}

// FromViper assembles a Config from the loaded viper state. Defaults are
// registered by cmd.initConfig.
func FromViper(v *viper.Viper) Config {
	return Config{
		API: API{
			BaseURL:           v.GetString("api.base_url"),
			Key:               v.GetString("api.key"),
			RequestsPerMinute: v.GetInt("api.requests_per_minute"),
			TimeoutSeconds:    v.GetInt("api.timeout_seconds"),
			MaxRetries:        v.GetInt("api.max_retries"),
		},
		Harvest: Harvest{
			WorkspaceCap:          v.GetInt("harvest.workspace_cap"),
			CollectionCap:         v.GetInt("harvest.collection_cap"),
			FetchTags:             v.GetBool("harvest.fetch_tags"),
			IncludePrivateNetwork: v.GetBool("harvest.include_private_network"),
		},
		Scoring: Scoring{
			Weights: Weights{
				Documentation: v.GetFloat64("scoring.weights.documentation"),
				Testing:       v.GetFloat64("scoring.weights.testing"),
				Monitoring:    v.GetFloat64("scoring.weights.monitoring"),
				Organization:  v.GetFloat64("scoring.weights.organization"),
			},
			MinDocumentationCoverage: v.GetFloat64("scoring.min_documentation_coverage"),
			MinTestCoverage:          v.GetFloat64("scoring.min_test_coverage"),
		},
		DBPath: v.GetString("dbpath"),
	}
}
