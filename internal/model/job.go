package model

import "fmt"

// OneWeekMinutes is the threshold above which a minimum time difference is
// accepted but flagged as unusual.
const OneWeekMinutes = 10080

// Source represents one observation table to ingest (local CSV, remote CSV
// or JSON API).
type Source struct {
	Type string `json:"type"` // csv, json, api
	URL  string `json:"url"`
}

// AnalysisConfig holds the typed parameters of a temporal independence
// analysis. It replaces the interactive prompt of earlier tooling: values
// are validated at job start, not ad hoc per stage.
type AnalysisConfig struct {
	MinDeltaTime    int      `json:"minDeltaTime"`              // minutes, must be > 0
	Policy          string   `json:"policy,omitempty"`          // LastIndependentRecord (default) or LastRecord
	Target          string   `json:"target,omitempty"`          // species (default) or individual
	NoExclude       bool     `json:"noExclude,omitempty"`       // skip the exclusion-tag filter
	Event           bool     `json:"event,omitempty"`           // also compute event IDs for raw records
	ExcludeTags     []string `json:"excludeTags,omitempty"`     // override of DefaultExcludeTags
	DeployPathIndex int      `json:"deployPathIndex,omitempty"` // 0-based path segment holding the deployment
}

// Validate checks the configuration before any pipeline stage runs. It
// returns the parsed policy and target so callers work with typed values.
func (c *AnalysisConfig) Validate() (Policy, Target, error) {
	if c.MinDeltaTime <= 0 {
		return "", "", fmt.Errorf("invalid minimum time difference %d: must be greater than 0 minutes", c.MinDeltaTime)
	}
	policy, err := ParsePolicy(c.Policy)
	if err != nil {
		return "", "", err
	}
	target := c.Target
	if target == "" {
		target = string(TargetSpecies)
	}
	tgt, err := ParseTarget(target)
	if err != nil {
		return "", "", err
	}
	if c.DeployPathIndex < 0 {
		return "", "", fmt.Errorf("invalid deployment path index %d: must be >= 0", c.DeployPathIndex)
	}
	return policy, tgt, nil
}

// ExcludeSet returns the effective exclusion tags for the job.
func (c *AnalysisConfig) ExcludeSet() []string {
	if len(c.ExcludeTags) > 0 {
		return c.ExcludeTags
	}
	return DefaultExcludeTags
}

// Export defines where analysis outputs go beyond the per-job CSV files.
type Export struct {
	Dir string `json:"dir"` // base output directory, defaults to "exports"
	DB  string `json:"db"`  // non-empty: also persist count rows to sqlite
}

// Workers defines number of workers per stage. Only ingestion fans out;
// the independence engine itself is a single synchronous batch transform.
type Workers struct {
	Ingest int `json:"ingest"`
}

// ConcurrencyConfig defines concurrency and job options.
type ConcurrencyConfig struct {
	Workers           Workers `json:"workers"`
	ChannelBufferSize int     `json:"channelBufferSize"`
	JobTimeout        string  `json:"jobTimeout"` // e.g., "5m"
	APIRetry          int     `json:"apiRetry"`   // attempts for remote sources
}

// AnalysisJobSpec is the full job definition submitted to
// POST /api/v1/analyses or assembled by the CLI.
type AnalysisJobSpec struct {
	Sources     []Source          `json:"sources"`
	Analysis    AnalysisConfig    `json:"analysis"`
	Export      *Export           `json:"export,omitempty"`
	Concurrency ConcurrencyConfig `json:"concurrency"`
	Logging     bool              `json:"logging"`
}

// Validate checks the whole job spec before work begins.
func (s *AnalysisJobSpec) Validate() error {
	if len(s.Sources) == 0 {
		return fmt.Errorf("at least one observation source is required")
	}
	if _, _, err := s.Analysis.Validate(); err != nil {
		return err
	}
	return nil
}
