package eva

import (
	"math"
	"runtime"
	"time"

	"goeva/domain/core"
)

const (
	// DefaultBlockSizeDays is one Gregorian year.
	DefaultBlockSizeDays = 365.2425

	// DefaultDeclusterRun is the default minimum separation between
	// independent POT events.
	DefaultDeclusterRun = 24 * time.Hour

	// BlockRuleAnnual is the only supported block-maxima granularity.
	BlockRuleAnnual = "annual"
)

// ExtractionConfig selects an extraction method and its parameters.
// Method-specific fields are pointers so that setting one for the wrong
// method can be reported as invalid input rather than silently ignored.
type ExtractionConfig struct {
	Method    Method         `json:"method"`
	Threshold *float64       `json:"threshold,omitempty"`       // POT only, required
	Run       *time.Duration `json:"run,omitempty"`             // POT only
	Decluster *bool          `json:"decluster,omitempty"`       // POT only, default true
	BlockRule string         `json:"block_rule,omitempty"`      // BM only, default annual
	BlockSize float64        `json:"block_size_days,omitempty"` // default one year
}

// POTConfig builds a declustered peaks-over-threshold configuration.
func POTConfig(threshold float64, run time.Duration) ExtractionConfig {
	decluster := true
	return ExtractionConfig{
		Method:    MethodPOT,
		Threshold: &threshold,
		Run:       &run,
		Decluster: &decluster,
	}
}

// BMConfig builds an annual block-maxima configuration.
func BMConfig() ExtractionConfig {
	return ExtractionConfig{Method: MethodBM}
}

// Normalize validates the configuration and fills defaults.
func (c ExtractionConfig) Normalize() (ExtractionConfig, error) {
	if !c.Method.Valid() {
		return c, core.NewInvalidInputError("method",
			"unrecognized extraction method, use POT or BM")
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSizeDays
	}
	if c.BlockSize < 0 || math.IsNaN(c.BlockSize) || math.IsInf(c.BlockSize, 0) {
		return c, core.NewInvalidInputError("block_size", "must be a positive number of days")
	}

	switch c.Method {
	case MethodPOT:
		if c.BlockRule != "" {
			return c, core.NewInvalidInputError("block_rule", "not applicable to POT extraction")
		}
		if c.Threshold == nil {
			return c, core.NewInvalidInputError("threshold", "required for POT extraction")
		}
		if math.IsNaN(*c.Threshold) || math.IsInf(*c.Threshold, 0) {
			return c, core.NewInvalidInputError("threshold", "must be finite")
		}
		if c.Decluster == nil {
			decluster := true
			c.Decluster = &decluster
		}
		if c.Run == nil {
			run := DefaultDeclusterRun
			c.Run = &run
		}
		if *c.Run < 0 {
			return c, core.NewInvalidInputError("run", "must be non-negative")
		}
	case MethodBM:
		if c.Threshold != nil {
			return c, core.NewInvalidInputError("threshold", "not applicable to BM extraction")
		}
		if c.Run != nil || c.Decluster != nil {
			return c, core.NewInvalidInputError("run/decluster", "not applicable to BM extraction")
		}
		switch c.BlockRule {
		case "", BlockRuleAnnual:
			c.BlockRule = BlockRuleAnnual
		case "monthly", "weekly":
			return c, core.ErrNotImplemented
		default:
			return c, core.NewInvalidInputError("block_rule", "unrecognized block granularity")
		}
	}
	return c, nil
}

// BootstrapConfig controls the parametric bootstrap confidence engine.
type BootstrapConfig struct {
	Simulations int     `json:"simulations"`
	Confidence  float64 `json:"confidence"`
	Truncate    bool    `json:"truncate"`
	MaxAttempts int     `json:"max_attempts"`
	Workers     int     `json:"workers"`
	Seed        uint64  `json:"seed"`
}

// DefaultBootstrapConfig returns the standard bootstrap settings: 100
// truncated simulations at 95% confidence.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Simulations: 100,
		Confidence:  0.95,
		Truncate:    true,
	}
}

// Normalize validates the configuration and fills defaults.
func (c BootstrapConfig) Normalize() (BootstrapConfig, error) {
	if c.Simulations <= 0 {
		return c, core.NewInvalidInputError("simulations", "must be positive")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return c, core.NewInvalidInputError("confidence", "must be in (0, 1)")
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = maxAttemptsFor(c.Simulations)
	}
	if c.MaxAttempts < c.Simulations {
		return c, core.NewInvalidInputError("max_attempts", "must be at least the simulation count")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

func maxAttemptsFor(sims int) int {
	attempts := 100 * sims
	if attempts < 1000 {
		attempts = 1000
	}
	return attempts
}

// FitConfig selects a distribution family and optional confidence
// bounds for the return-level curve.
type FitConfig struct {
	Family    Family           `json:"family"`
	Bootstrap *BootstrapConfig `json:"bootstrap,omitempty"` // nil for point estimates only
}
