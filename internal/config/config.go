package config

import (
	"os"
	"strconv"
	"time"

	"venturi/domain/gates"
	"venturi/domain/learning"
	"venturi/internal/errors"
)

// Config represents the complete engine configuration, supplied by the host
// at session start
type Config struct {
	Session    SessionConfig
	Gates      GateConfig
	Learning   learning.Config
	Supervisor SupervisorConfig
	Ledger     LedgerConfig
	Server     ServerConfig
	Report     ReportConfig
}

// SessionConfig holds the framing bounds of one session
type SessionConfig struct {
	ChannelCount int
	SampleRate   int
	WindowMS     int
	// GapTolerance is the fraction of a sample period a timestamp may drift
	// before the slot counts as missing
	GapTolerance float64
	// DegradedGapRatio marks a frame degraded when its gap ratio exceeds it
	DegradedGapRatio float64
	// QualityFloor short-circuits scoring below this quality
	QualityFloor float64
	// MainsHz is the line frequency checked by artifact detection (50 or 60)
	MainsHz float64
}

// GateConfig holds the cascade's initial parameters and deploy-time bounds
type GateConfig struct {
	Initial  gates.Set
	Envelope gates.Envelope
}

// SupervisorConfig holds the slow-path cadence and thresholds
type SupervisorConfig struct {
	// Cycle triggers: whichever fires first
	CycleFrames   int
	CycleInterval time.Duration

	RingCapacity int

	// Analysis
	EfficiencyFloor    float64
	QualitySlopeFloor  float64
	ConsecutiveWindows int

	// Proposal step sizes
	RatioStep float64
	RateStep  float64

	// Validation thresholds
	MinConfidence float64
	MaxRisk       float64
	MaxComplexity float64

	// Monitoring
	MonitorFrames       int
	MonitorInterval     time.Duration
	EffectivenessFloor  float64
}

// LedgerConfig selects where deployment records are appended
type LedgerConfig struct {
	// PostgresURL enables the postgres ledger when non-empty; otherwise the
	// in-memory ledger is used
	PostgresURL string
}

// ServerConfig holds the host daemon's status endpoint settings
type ServerConfig struct {
	Port    string
	Enabled bool
}

// ReportConfig holds the session report output settings
type ReportConfig struct {
	// XLSXPath enables the workbook report when non-empty
	XLSXPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Session: SessionConfig{
			ChannelCount:     getEnvIntOrDefault("CHANNEL_COUNT", 8),
			SampleRate:       getEnvIntOrDefault("SAMPLE_RATE", 256),
			WindowMS:         getEnvIntOrDefault("WINDOW_MS", 1000),
			GapTolerance:     getEnvFloatOrDefault("GAP_TOLERANCE", 0.5),
			DegradedGapRatio: getEnvFloatOrDefault("DEGRADED_GAP_RATIO", 0.2),
			QualityFloor:     getEnvFloatOrDefault("QUALITY_FLOOR", 0.3),
			MainsHz:          getEnvFloatOrDefault("MAINS_HZ", 50),
		},
		Gates: GateConfig{
			Initial:  gates.DefaultSet(),
			Envelope: gates.DefaultEnvelope(),
		},
		Learning: learning.DefaultConfig(),
		Supervisor: SupervisorConfig{
			CycleFrames:        getEnvIntOrDefault("SUPERVISOR_CYCLE_FRAMES", 200),
			CycleInterval:      getEnvDurationOrDefault("SUPERVISOR_CYCLE_INTERVAL", 60*time.Second),
			RingCapacity:       getEnvIntOrDefault("SUPERVISOR_RING_CAPACITY", 1024),
			EfficiencyFloor:    getEnvFloatOrDefault("SUPERVISOR_EFFICIENCY_FLOOR", 0.5),
			QualitySlopeFloor:  getEnvFloatOrDefault("SUPERVISOR_QUALITY_SLOPE_FLOOR", -0.002),
			ConsecutiveWindows: getEnvIntOrDefault("SUPERVISOR_CONSECUTIVE_WINDOWS", 2),
			RatioStep:          getEnvFloatOrDefault("SUPERVISOR_RATIO_STEP", 0.05),
			RateStep:           getEnvFloatOrDefault("SUPERVISOR_RATE_STEP", 0.02),
			MinConfidence:      getEnvFloatOrDefault("SUPERVISOR_MIN_CONFIDENCE", 0.85),
			MaxRisk:            getEnvFloatOrDefault("SUPERVISOR_MAX_RISK", 5),
			MaxComplexity:      getEnvFloatOrDefault("SUPERVISOR_MAX_COMPLEXITY", 8),
			MonitorFrames:      getEnvIntOrDefault("SUPERVISOR_MONITOR_FRAMES", 300),
			MonitorInterval:    getEnvDurationOrDefault("SUPERVISOR_MONITOR_INTERVAL", 5*time.Minute),
			EffectivenessFloor: getEnvFloatOrDefault("SUPERVISOR_EFFECTIVENESS_FLOOR", 0.5),
		},
		Ledger: LedgerConfig{
			PostgresURL: getEnvOrDefault("LEDGER_DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			Enabled: getEnvBoolOrDefault("STATUS_SERVER_ENABLED", true),
		},
		Report: ReportConfig{
			XLSXPath: getEnvOrDefault("REPORT_XLSX", ""),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Session.ChannelCount <= 0 {
		return errors.ConfigInvalid("CHANNEL_COUNT must be positive")
	}
	if cfg.Session.SampleRate <= 0 {
		return errors.ConfigInvalid("SAMPLE_RATE must be positive")
	}
	if cfg.Session.WindowMS <= 0 {
		return errors.ConfigInvalid("WINDOW_MS must be positive")
	}
	if cfg.Session.DegradedGapRatio <= 0 || cfg.Session.DegradedGapRatio > 1 {
		return errors.ConfigInvalid("DEGRADED_GAP_RATIO must be in (0, 1]")
	}
	if cfg.Gates.Envelope.RatioMin <= 0 || cfg.Gates.Envelope.RatioMax > 1 {
		return errors.ConfigInvalid("gate envelope must satisfy 0 < min <= max <= 1")
	}
	if err := cfg.Gates.Envelope.CheckSet(cfg.Gates.Initial); err != nil {
		return errors.Wrap(err, "initial gate set violates envelope")
	}
	if cfg.Learning.TraitDim <= 0 {
		return errors.ConfigInvalid("trait dimension must be positive")
	}
	if cfg.Supervisor.RingCapacity <= 0 {
		return errors.ConfigInvalid("SUPERVISOR_RING_CAPACITY must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
