// Package config loads and validates the AMF's configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full AMF configuration.
type Config struct {
	AMF           AMFIdentity         `yaml:"amf"`
	PLMN          PLMNConfig          `yaml:"plmn"`
	SBI           SBIConfig           `yaml:"sbi"`
	N1N2          N1N2Config          `yaml:"n1n2"`
	Security      SecurityConfig      `yaml:"security"`
	Timers        TimersConfig        `yaml:"timers"`
	Capacity      CapacityConfig      `yaml:"capacity"`
	NRF           NRFConfig           `yaml:"nrf"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AMFIdentity is this AMF instance's own identity (amfInstanceId, amfName,
// amfRegionId, amfSetId, amfPointer).
type AMFIdentity struct {
	InstanceID string `yaml:"instance_id"`
	Name       string `yaml:"name"`
	RegionID   string `yaml:"region_id"`
	SetID      string `yaml:"set_id"`
	Pointer    string `yaml:"pointer"`
}

// PLMNConfig carries the PLMN id, tracking-area list, and roaming
// PLMN list that define this AMF's network scope.
type PLMNConfig struct {
	MCC     string   `yaml:"mcc"`
	MNC     string   `yaml:"mnc"`
	TAC     string   `yaml:"tac"`
	TAIList []string `yaml:"tai_list"`
	PLMNList []string `yaml:"plmn_list"`
}

// SBIConfig is the HTTP listener plus the strict/compat classification
// flags decided in DESIGN.md.
type SBIConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	StrictMode  bool   `yaml:"strict_mode"`
	Compat      bool   `yaml:"compat"`
}

// N1N2Config is the N2 TCP listener's bind address and port.
type N1N2Config struct {
	BindAddress string `yaml:"bind_address"`
	N2Port      int    `yaml:"n2_port"`
}

// SecurityConfig carries amfKey, supportedAlgorithms, authenticationTimeout.
type SecurityConfig struct {
	AMFKey                string        `yaml:"amf_key"`
	IntegrityOrder        []string      `yaml:"integrity_order"`
	CipheringOrder        []string      `yaml:"ciphering_order"`
	AuthenticationTimeout time.Duration `yaml:"authentication_timeout"`
}

// SNSSAIConfig is a configured S-NSSAI in "SST:n,SD:xxx" form, already split.
type SNSSAIConfig struct {
	SST int    `yaml:"sst"`
	SD  string `yaml:"sd"`
}

// TimersConfig carries the 3GPP timers (Go duration strings such as "15s"
// in YAML, exposed as time.Duration).
type TimersConfig struct {
	T3510 time.Duration `yaml:"t3510"`
	T3511 time.Duration `yaml:"t3511"`
	T3512 time.Duration `yaml:"t3512"`
	T3513 time.Duration `yaml:"t3513"`
	T3560 time.Duration `yaml:"t3560"`
}

// CapacityConfig carries supportedSlices, maxUeConnections, loadBalanceThreshold.
type CapacityConfig struct {
	SupportedSlices    []SNSSAIConfig `yaml:"supported_slices"`
	MaxUeConnections   int            `yaml:"max_ue_connections"`
	LoadBalanceThreshold int          `yaml:"load_balance_threshold"`
}

// NRFConfig is the real external NRF this AMF registers itself with at
// startup, distinct from the in-process peer registry (see DESIGN.md).
type NRFConfig struct {
	URL               string        `yaml:"url"`
	Enabled           bool          `yaml:"enabled"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// ClickHouseConfig is the optional statistics sink (disabled by default).
type ClickHouseConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Addresses    []string `yaml:"addresses"`
	Database     string   `yaml:"database"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	MaxOpenConns int      `yaml:"max_open_conns"`
	MaxIdleConns int      `yaml:"max_idle_conns"`
}

// ObservabilityConfig carries logLevel, logFile plus metrics/tracing.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// MetricsConfig is the Prometheus exposition port.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// TracingConfig is the otel exporter endpoint.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// Load reads path as YAML; a missing file falls back to DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration invariants. Configuration errors are
// fatal at startup.
func (c *Config) Validate() error {
	if c.SBI.Port <= 0 || c.SBI.Port > 65535 {
		return fmt.Errorf("invalid sbi port: %d", c.SBI.Port)
	}
	if c.N1N2.N2Port <= 0 || c.N1N2.N2Port > 65535 {
		return fmt.Errorf("invalid n2 port: %d", c.N1N2.N2Port)
	}
	if c.AMF.InstanceID == "" {
		return fmt.Errorf("amf instance id is required")
	}
	if c.PLMN.MCC == "" || c.PLMN.MNC == "" {
		return fmt.Errorf("plmn mcc/mnc are required")
	}
	if c.Capacity.MaxUeConnections <= 0 {
		return fmt.Errorf("max_ue_connections must be positive")
	}
	if c.ClickHouse.Enabled && len(c.ClickHouse.Addresses) == 0 {
		return fmt.Errorf("clickhouse addresses are required when clickhouse is enabled")
	}
	return nil
}

// GUAMIString returns the dash-separated identity string
// (MCCMNC-region-set) used in AUSF serving
// network names and NRF self-registration.
func (c *Config) GUAMIString() string {
	return fmt.Sprintf("%s-%s-%s", c.PLMN.MCC+c.PLMN.MNC, c.AMF.RegionID, c.AMF.SetID)
}

// DefaultConfig returns the built-in configuration used when no config
// file is present.
func DefaultConfig() *Config {
	return &Config{
		AMF: AMFIdentity{
			InstanceID: "amf-1",
			Name:       "amf-1",
			RegionID:   "01",
			SetID:      "001",
			Pointer:    "00",
		},
		PLMN: PLMNConfig{
			MCC: "001",
			MNC: "01",
			TAC: "000001",
		},
		SBI: SBIConfig{
			BindAddress: "0.0.0.0",
			Port:        8080,
			StrictMode:  false,
			Compat:      true,
		},
		N1N2: N1N2Config{
			BindAddress: "0.0.0.0",
			N2Port:      38412,
		},
		Security: SecurityConfig{
			AMFKey:                "00112233445566778899aabbccddeeff",
			IntegrityOrder:        []string{"NIA2", "NIA1", "NIA0"},
			CipheringOrder:        []string{"NEA2", "NEA1", "NEA0"},
			AuthenticationTimeout: 5 * time.Second,
		},
		Timers: TimersConfig{
			T3510: 15 * time.Second,
			T3511: 10 * time.Second,
			T3512: 54 * time.Minute,
			T3513: 6 * time.Second,
			T3560: 6 * time.Second,
		},
		Capacity: CapacityConfig{
			SupportedSlices:      []SNSSAIConfig{{SST: 1}},
			MaxUeConnections:     100000,
			LoadBalanceThreshold: 80,
		},
		NRF: NRFConfig{
			URL:               "http://localhost:8000",
			Enabled:           false,
			HeartbeatInterval: 10 * time.Second,
		},
		ClickHouse: ClickHouseConfig{
			Enabled:      false,
			Addresses:    []string{"localhost:9000"},
			Database:     "amf",
			Username:     "default",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			LogFile:  "",
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    9090,
			},
			Tracing: TracingConfig{
				Enabled: false,
			},
		},
	}
}
