package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the naive wall-clock timestamp format used across all
// observation tables and output files. Timezone offsets are intentionally
// ignored.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultExcludeTags are administrative tags removed before independence
// analysis unless the job disables exclusion.
var DefaultExcludeTags = []string{
	"", "Blank", "Useless data", "Unidentified", "Human", "Unknown", "Blur",
}

// Observation is one detection record: a media resource (or its sidecar),
// the camera deployment it came from, the analyzed tag value and the
// capture time.
type Observation struct {
	Path       string    `json:"path"`
	Deployment string    `json:"deployment"`
	Tag        string    `json:"tag"`
	Time       time.Time `json:"time"`
}

// HasKeyFields reports whether all fields the analysis depends on are set.
func (o Observation) HasKeyFields() bool {
	return o.Deployment != "" && o.Tag != "" && !o.Time.IsZero()
}

// GroupKey identifies the (deployment, tag) partition the record belongs to.
func (o Observation) GroupKey() string {
	return o.Deployment + "\x00" + o.Tag
}

// Target selects which tag column of the input table is analyzed.
type Target string

const (
	TargetSpecies    Target = "species"
	TargetIndividual Target = "individual"
)

// ColumnName returns the input table column holding the tag value.
func (t Target) ColumnName() string {
	return string(t)
}

// ParseTarget validates a target selector.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case TargetSpecies:
		return TargetSpecies, nil
	case TargetIndividual:
		return TargetIndividual, nil
	default:
		return "", fmt.Errorf("invalid target %q: must be %q or %q", s, TargetSpecies, TargetIndividual)
	}
}

// Policy selects how the minimum time difference is compared.
type Policy string

const (
	// PolicyLastIndependentRecord compares each record against the most
	// recent record already marked independent (running gap test).
	PolicyLastIndependentRecord Policy = "LastIndependentRecord"
	// PolicyLastRecord tests each record against a fixed trailing window,
	// regardless of how earlier records were classified.
	PolicyLastRecord Policy = "LastRecord"
)

// Abbrev returns the short form used in output filenames.
func (p Policy) Abbrev() string {
	if p == PolicyLastRecord {
		return "LR"
	}
	return "LIR"
}

// ParsePolicy validates a policy selector. The empty string selects the
// default LastIndependentRecord policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.TrimSpace(s) {
	case "", string(PolicyLastIndependentRecord):
		return PolicyLastIndependentRecord, nil
	case string(PolicyLastRecord):
		return PolicyLastRecord, nil
	default:
		return "", fmt.Errorf("invalid policy %q: must be %q or %q", s, PolicyLastIndependentRecord, PolicyLastRecord)
	}
}

// MinutesToDuration converts the configured minimum time difference to a
// duration usable for timestamp comparison.
func MinutesToDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
