package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/tradingengine/internal/apperr"
)

// EngineVersion is the semver string stamped onto every DecisionPacket.
const EngineVersion = "v1.0.0"

// Matrices is the full set of tunable matrices/thresholds. It is a plain
// value type, exported for YAML loading; after boot callers read it through
// Registry, which holds the frozen copy.
type Matrices struct {
	ConfluenceWeights       ConfluenceWeights       `yaml:"confluence_weights"`
	ConfluenceMultipliers   []Tier                  `yaml:"confluence_multipliers"`
	QualityMultipliers      QualityMultipliers      `yaml:"quality_multipliers"`
	HTFAlignmentMultipliers HTFAlignmentMultipliers `yaml:"htf_alignment_multipliers"`
	RRThresholds            []Tier                  `yaml:"rr_thresholds"`
	VolumeThresholds        []Tier                  `yaml:"volume_thresholds"`
	TrendThresholds         []Tier                  `yaml:"trend_thresholds"`
	SessionMultipliers      SessionMultipliers      `yaml:"session_multipliers"`
	DayMultipliers          DayMultipliers          `yaml:"day_multipliers"`
	PhaseConfidenceTiers    []Tier                  `yaml:"phase_confidence_tiers"`
	Bounds                  Bounds                  `yaml:"bounds"`
	ConfidenceThresholds    ConfidenceThresholds    `yaml:"confidence_thresholds"`
	TieBreak                TieBreak                `yaml:"tie_break"`
}

// Default returns the built-in decision matrices, used when no override
// file is supplied.
func Default() Matrices {
	return Matrices{
		ConfluenceWeights:       DefaultConfluenceWeights(),
		ConfluenceMultipliers:   DefaultConfluenceMultipliers(),
		QualityMultipliers:      DefaultQualityMultipliers(),
		HTFAlignmentMultipliers: DefaultHTFAlignmentMultipliers(),
		RRThresholds:            DefaultRRThresholds(),
		VolumeThresholds:        DefaultVolumeThresholds(),
		TrendThresholds:         DefaultTrendThresholds(),
		SessionMultipliers:      DefaultSessionMultipliers(),
		DayMultipliers:          DefaultDayMultipliers(),
		PhaseConfidenceTiers:    DefaultPhaseConfidenceBoostTiers(),
		Bounds:                  DefaultBounds(),
		ConfidenceThresholds:    DefaultConfidenceThresholds(),
		TieBreak:                TieBreakLong,
	}
}

// Registry is the frozen, content-hashed configuration singleton. Exactly
// one is constructed at process init — no package-level global, callers
// pass the handle through.
type Registry struct {
	matrices Matrices
	hash     string
	frozen   bool
}

// NewRegistry freezes m immediately and computes its content hash.
func NewRegistry(m Matrices) *Registry {
	r := &Registry{matrices: m}
	r.hash = computeHash(m)
	r.frozen = true
	return r
}

// Load reads matrices from a YAML file and freezes the result. A missing
// file is not an error — the defaults are used.
func Load(path string) (*Registry, error) {
	m := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return NewRegistry(m), nil
			}
			return nil, apperr.Internal("failed to read config file", err)
		}
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, apperr.Internal("failed to parse config file", err)
		}
	}
	return NewRegistry(m), nil
}

func computeHash(m Matrices) string {
	// Canonical JSON: map keys are sorted by Go's encoding/json by default,
	// giving a stable hash across process restarts for the same content.
	b, err := json.Marshal(m)
	if err != nil {
		// Matrices is a plain value type; marshaling cannot fail in
		// practice, but a non-empty hash is still required.
		b = []byte(fmt.Sprintf("%+v", m))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

// Hash returns the first 16 hex chars of the SHA-256 of the canonical JSON
// of the matrices.
func (r *Registry) Hash() string { return r.hash }

// Version returns the engine's semver string.
func (r *Registry) Version() string { return EngineVersion }

// Matrices returns a copy of the frozen matrices. Mutating the returned
// value has no effect on the registry.
func (r *Registry) Matrices() Matrices {
	m := r.matrices
	m.ConfluenceWeights = maps.Clone(m.ConfluenceWeights)
	m.ConfluenceMultipliers = slices.Clone(m.ConfluenceMultipliers)
	m.QualityMultipliers = maps.Clone(m.QualityMultipliers)
	m.HTFAlignmentMultipliers = maps.Clone(m.HTFAlignmentMultipliers)
	m.RRThresholds = slices.Clone(m.RRThresholds)
	m.VolumeThresholds = slices.Clone(m.VolumeThresholds)
	m.TrendThresholds = slices.Clone(m.TrendThresholds)
	m.SessionMultipliers = maps.Clone(m.SessionMultipliers)
	m.DayMultipliers = maps.Clone(m.DayMultipliers)
	m.PhaseConfidenceTiers = slices.Clone(m.PhaseConfidenceTiers)
	return m
}

// Mutate always fails: the registry is frozen at construction and has no
// supported reload path, since a process-lifetime config hash must stay
// constant across every decision it stamps.
func (r *Registry) Mutate() error {
	return apperr.Immutability("config registry is frozen; mutation after load is not supported")
}
