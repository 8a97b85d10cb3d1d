package settings

import (
	"fmt"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-mining/core"
)

const (
	DefaultPoolName                     = "pool"
	DefaultLimiterMinimalDifficulty     = 8
	DefaultLimiterMaximalDifficulty     = 512000
	DefaultLimiterDefaultDifficulty     = 32
	DefaultLimiterStartupDifficulty     = 64
	DefaultLimiterStartupPeriodSeconds  = 120
	DefaultLimiterRecalculationSeconds  = 5
	DefaultLimiterFullCollectionSeconds = 120
	DefaultLimiterTargetSubmissionRate  = 16.0 / 60
	DefaultLimiterMinOKSubmitsRatio     = 0.7
	DefaultLimiterMaxOKSubmitsRatio     = 1.65
	DefaultLimiterChangeRatioDown       = 0.8
	DefaultLimiterChangeRatioUp         = 1.0
)

// PoolSettings is the typed view of the settings the bundled policies read.
type PoolSettings struct {
	Debug    bool   `koanf:"DEBUG" mapstructure:"DEBUG"`
	PoolName string `koanf:"POOL_NAME" mapstructure:"POOL_NAME"`

	LimiterMinimalDifficulty     int     `koanf:"LIMITER_MINIMAL_DIFFICULTY" mapstructure:"LIMITER_MINIMAL_DIFFICULTY"`
	LimiterMaximalDifficulty     int     `koanf:"LIMITER_MAXIMAL_DIFFICULTY" mapstructure:"LIMITER_MAXIMAL_DIFFICULTY"`
	LimiterDefaultDifficulty     int     `koanf:"LIMITER_DEFAULT_DIFFICULTY" mapstructure:"LIMITER_DEFAULT_DIFFICULTY"`
	LimiterStartupDifficulty     int     `koanf:"LIMITER_DEFAULT_DIFFICULTY_STARTUP" mapstructure:"LIMITER_DEFAULT_DIFFICULTY_STARTUP"`
	LimiterStartupPeriodS        int     `koanf:"LIMITER_STARTUP_PERIOD_S" mapstructure:"LIMITER_STARTUP_PERIOD_S"`
	LimiterRecalculationPeriodS  int     `koanf:"LIMITER_RECALCULATION_PERIOD_S" mapstructure:"LIMITER_RECALCULATION_PERIOD_S"`
	LimiterFullCollectionPeriodS int     `koanf:"LIMITER_FULL_COLLECTION_PERIOD_S" mapstructure:"LIMITER_FULL_COLLECTION_PERIOD_S"`
	LimiterTargetSubmissionRate  float64 `koanf:"LIMITER_TARGET_SUBMISSION_RATE" mapstructure:"LIMITER_TARGET_SUBMISSION_RATE"`
	LimiterMinOKSubmitsRatio     float64 `koanf:"LIMITER_MIN_OK_SUBMITS_RATIO" mapstructure:"LIMITER_MIN_OK_SUBMITS_RATIO"`
	LimiterMaxOKSubmitsRatio     float64 `koanf:"LIMITER_MAX_OK_SUBMITS_RATIO" mapstructure:"LIMITER_MAX_OK_SUBMITS_RATIO"`
	LimiterChangeRatioDown       float64 `koanf:"LIMITER_CHANGE_RATIO_DOWN" mapstructure:"LIMITER_CHANGE_RATIO_DOWN"`
	LimiterChangeRatioUp         float64 `koanf:"LIMITER_CHANGE_RATIO_UP" mapstructure:"LIMITER_CHANGE_RATIO_UP"`

	// REPORTER__* gates decide which report events reach the installed
	// reporter. All of them are off unless a layer turns them on.
	ReportNewAuthorization    bool `koanf:"REPORTER__NEW_AUTHORIZATION" mapstructure:"REPORTER__NEW_AUTHORIZATION"`
	ReportNewSubscription     bool `koanf:"REPORTER__NEW_SUBSCRIPTION" mapstructure:"REPORTER__NEW_SUBSCRIPTION"`
	ReportSessionDisconnected bool `koanf:"REPORTER__SESSION_DISCONNECTED" mapstructure:"REPORTER__SESSION_DISCONNECTED"`
	ReportDifficultyChanged   bool `koanf:"REPORTER__DIFFICULTY_CHANGED" mapstructure:"REPORTER__DIFFICULTY_CHANGED"`
	ReportWorkerStatsChanged  bool `koanf:"REPORTER__WORKER_STATS_CHANGED" mapstructure:"REPORTER__WORKER_STATS_CHANGED"`
}

func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		PoolName:                     DefaultPoolName,
		LimiterMinimalDifficulty:     DefaultLimiterMinimalDifficulty,
		LimiterMaximalDifficulty:     DefaultLimiterMaximalDifficulty,
		LimiterDefaultDifficulty:     DefaultLimiterDefaultDifficulty,
		LimiterStartupDifficulty:     DefaultLimiterStartupDifficulty,
		LimiterStartupPeriodS:        DefaultLimiterStartupPeriodSeconds,
		LimiterRecalculationPeriodS:  DefaultLimiterRecalculationSeconds,
		LimiterFullCollectionPeriodS: DefaultLimiterFullCollectionSeconds,
		LimiterTargetSubmissionRate:  DefaultLimiterTargetSubmissionRate,
		LimiterMinOKSubmitsRatio:     DefaultLimiterMinOKSubmitsRatio,
		LimiterMaxOKSubmitsRatio:     DefaultLimiterMaxOKSubmitsRatio,
		LimiterChangeRatioDown:       DefaultLimiterChangeRatioDown,
		LimiterChangeRatioUp:         DefaultLimiterChangeRatioUp,
	}
}

// DefaultLayer is the module default layer fed to Load.
func DefaultLayer() Layer {
	d := DefaultPoolSettings()
	return Layer{
		"DEBUG":                              d.Debug,
		"POOL_NAME":                          d.PoolName,
		"LIMITER_MINIMAL_DIFFICULTY":         d.LimiterMinimalDifficulty,
		"LIMITER_MAXIMAL_DIFFICULTY":         d.LimiterMaximalDifficulty,
		"LIMITER_DEFAULT_DIFFICULTY":         d.LimiterDefaultDifficulty,
		"LIMITER_DEFAULT_DIFFICULTY_STARTUP": d.LimiterStartupDifficulty,
		"LIMITER_STARTUP_PERIOD_S":           d.LimiterStartupPeriodS,
		"LIMITER_RECALCULATION_PERIOD_S":     d.LimiterRecalculationPeriodS,
		"LIMITER_FULL_COLLECTION_PERIOD_S":   d.LimiterFullCollectionPeriodS,
		"LIMITER_TARGET_SUBMISSION_RATE":     d.LimiterTargetSubmissionRate,
		"LIMITER_MIN_OK_SUBMITS_RATIO":       d.LimiterMinOKSubmitsRatio,
		"LIMITER_MAX_OK_SUBMITS_RATIO":       d.LimiterMaxOKSubmitsRatio,
		"LIMITER_CHANGE_RATIO_DOWN":          d.LimiterChangeRatioDown,
		"LIMITER_CHANGE_RATIO_UP":            d.LimiterChangeRatioUp,
		"REPORTER__NEW_AUTHORIZATION":        d.ReportNewAuthorization,
		"REPORTER__NEW_SUBSCRIPTION":         d.ReportNewSubscription,
		"REPORTER__SESSION_DISCONNECTED":     d.ReportSessionDisconnected,
		"REPORTER__DIFFICULTY_CHANGED":       d.ReportDifficultyChanged,
		"REPORTER__WORKER_STATS_CHANGED":     d.ReportWorkerStatsChanged,
	}
}

// ReportsEvent reports whether eventName passes its REPORTER__* gate.
// Events without a gate always pass.
func (s PoolSettings) ReportsEvent(eventName string) bool {
	switch eventName {
	case core.EventNewAuthorization:
		return s.ReportNewAuthorization
	case core.EventNewSubscription:
		return s.ReportNewSubscription
	case core.EventSessionDisconnected:
		return s.ReportSessionDisconnected
	case core.EventDifficultyChanged:
		return s.ReportDifficultyChanged
	case core.EventWorkerStatsChanged:
		return s.ReportWorkerStatsChanged
	}
	return true
}

func (s *PoolSettings) Validate() error {
	if s == nil {
		return fmt.Errorf("settings: pool settings are required")
	}
	if s.LimiterMinimalDifficulty < 1 {
		return fmt.Errorf("settings: LIMITER_MINIMAL_DIFFICULTY must be at least 1")
	}
	if s.LimiterMaximalDifficulty < s.LimiterMinimalDifficulty {
		return fmt.Errorf("settings: LIMITER_MAXIMAL_DIFFICULTY must not be below LIMITER_MINIMAL_DIFFICULTY")
	}
	if s.LimiterTargetSubmissionRate <= 0 {
		return fmt.Errorf("settings: LIMITER_TARGET_SUBMISSION_RATE must be positive")
	}
	if s.LimiterRecalculationPeriodS <= 0 {
		return fmt.Errorf("settings: LIMITER_RECALCULATION_PERIOD_S must be positive")
	}
	if s.LimiterMinOKSubmitsRatio <= 0 || s.LimiterMaxOKSubmitsRatio <= s.LimiterMinOKSubmitsRatio {
		return fmt.Errorf("settings: LIMITER_MIN_OK_SUBMITS_RATIO must be positive and below LIMITER_MAX_OK_SUBMITS_RATIO")
	}
	return nil
}

// Decode builds a typed struct from resolved settings over the given defaults.
func Decode[T any](s *Settings, defaults T) (T, error) {
	return cfgx.Build[T](s.Map(), cfgx.WithDefaults(defaults))
}

// DecodePool decodes and validates PoolSettings.
func DecodePool(s *Settings) (PoolSettings, error) {
	return cfgx.Build[PoolSettings](s.Map(),
		cfgx.WithDefaults(DefaultPoolSettings()),
		cfgx.WithValidator[PoolSettings]((*PoolSettings).Validate),
	)
}
