package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Config struct {
	App        AppConfig                 `json:"app"`
	Gateways   map[string]GatewayConfig  `json:"gateways"`
	Providers  map[string]ProviderConfig `json:"providers"`
	Calendar   CalendarConfig            `json:"calendar"`
	Memory     MemoryConfig              `json:"memory"`
	Scheduling SchedulingConfig          `json:"scheduling"`
}

type AppConfig struct {
	Name        string `json:"name"`
	PrincipalID string `json:"principal_id"`
}

type GatewayConfig struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

// CalendarConfig points at the calendar bridge that fronts the principal's
// provider account. OAuth token acquisition lives in the bridge, not here.
type CalendarConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// SchedulingConfig carries the tunables for the multi-step engine. These are
// configuration rather than inlined literals so operators and tests can move
// them without a rebuild.
type SchedulingConfig struct {
	CircuitFailureThreshold int     `json:"circuit_failure_threshold"`
	CircuitCooldownSeconds  int     `json:"circuit_cooldown_seconds"`
	MaxRetries              int     `json:"max_retries"`
	BaseDelayMs             int     `json:"base_delay_ms"`
	MaxDelayMs              int     `json:"max_delay_ms"`
	RateLimitDelayMs        int     `json:"rate_limit_delay_ms"`
	IntentConfidenceCutoff  float64 `json:"intent_confidence_cutoff"`
	DefaultTimezone         string  `json:"default_timezone"`
	DefaultDurationMinutes  int     `json:"default_duration_minutes"`
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	cfg.Scheduling.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero-valued tunables with production defaults.
func (s *SchedulingConfig) ApplyDefaults() {
	if s.CircuitFailureThreshold <= 0 {
		s.CircuitFailureThreshold = 5
	}
	if s.CircuitCooldownSeconds <= 0 {
		s.CircuitCooldownSeconds = 300
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.BaseDelayMs <= 0 {
		s.BaseDelayMs = 1000
	}
	if s.MaxDelayMs <= 0 {
		s.MaxDelayMs = 30000
	}
	if s.RateLimitDelayMs <= 0 {
		s.RateLimitDelayMs = 60000
	}
	if s.IntentConfidenceCutoff <= 0 {
		s.IntentConfidenceCutoff = 0.3
	}
	if s.DefaultTimezone == "" {
		s.DefaultTimezone = "UTC"
	}
	if s.DefaultDurationMinutes <= 0 {
		s.DefaultDurationMinutes = 30
	}
}

// CircuitCooldown returns the circuit cool-down window as a duration.
func (s *SchedulingConfig) CircuitCooldown() time.Duration {
	return time.Duration(s.CircuitCooldownSeconds) * time.Second
}

// BaseDelay returns the initial retry backoff as a duration.
func (s *SchedulingConfig) BaseDelay() time.Duration {
	return time.Duration(s.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the backoff cap as a duration.
func (s *SchedulingConfig) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelayMs) * time.Millisecond
}

// RateLimitDelay returns the fixed hold applied after rate-limit errors.
func (s *SchedulingConfig) RateLimitDelay() time.Duration {
	return time.Duration(s.RateLimitDelayMs) * time.Millisecond
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGateway returns the named gateway config if it is enabled
func (c *Config) GetGateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled {
		return g, true
	}
	return GatewayConfig{}, false
}
