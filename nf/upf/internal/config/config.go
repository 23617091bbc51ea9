// Package config loads and validates the UPF's configuration. There is
// no PFCP control plane here, so sessions are installed statically at
// startup instead of provisioned dynamically.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full UPF configuration.
type Config struct {
	UPF           UPFIdentity         `yaml:"upf"`
	N3            N3Config            `yaml:"n3"`
	N6            N6Config            `yaml:"n6"`
	WorkerPool    WorkerPoolConfig    `yaml:"worker_pool"`
	Sessions      []StaticSession     `yaml:"sessions"`
	Admin         AdminConfig         `yaml:"admin"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// UPFIdentity is this UPF instance's own identity, reported by the admin
// server's /status endpoint.
type UPFIdentity struct {
	InstanceID string `yaml:"instance_id"`
	Name       string `yaml:"name"`
}

// N3Config is the gNB-facing GTP-U interface.
type N3Config struct {
	BindAddress  string `yaml:"bind_address"`
	Port         int    `yaml:"port"`
	LocalAddress string `yaml:"local_address"`
}

// N6Config is the data-network-facing interface this UPF forwards
// decapsulated uplink packets to and receives downlink packets from.
type N6Config struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// WorkerPoolConfig sizes the RSS-simulated fast path. NumWorkers must
// equal RxQueues: more workers than simulated NIC receive queues is
// rejected, and so is fewer, which would leave queues unserved.
type WorkerPoolConfig struct {
	RxQueues   int `yaml:"rx_queues"`
	NumWorkers int `yaml:"num_workers"`
	QueueDepth int `yaml:"queue_depth"`
}

// StaticSession is one session installed into the Store at startup,
// standing in for what a real PFCP Session Establishment Request would
// otherwise provision.
type StaticSession struct {
	UEIP        string `yaml:"ue_ip"`
	DLTEID      uint32 `yaml:"dl_teid"`
	ULTEID      uint32 `yaml:"ul_teid"`
	GNBIP       string `yaml:"gnb_ip"`
	GNBPort     uint16 `yaml:"gnb_port"`
	DNIP        string `yaml:"dn_ip"`
	QoSPriority uint8  `yaml:"qos_priority"`
}

// AdminConfig is the chi-based status/health server.
type AdminConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// ObservabilityConfig carries logLevel plus the metrics exposition port.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// MetricsConfig is the Prometheus exposition port.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
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
	if c.N3.Port <= 0 || c.N3.Port > 65535 {
		return fmt.Errorf("invalid n3 port: %d", c.N3.Port)
	}
	if net.ParseIP(c.N3.LocalAddress) == nil {
		return fmt.Errorf("n3 local_address %q is not a valid IP", c.N3.LocalAddress)
	}
	if c.WorkerPool.NumWorkers <= 0 {
		return fmt.Errorf("worker_pool.num_workers must be positive")
	}
	if c.WorkerPool.RxQueues <= 0 {
		return fmt.Errorf("worker_pool.rx_queues must be positive")
	}
	if c.WorkerPool.NumWorkers > c.WorkerPool.RxQueues {
		return fmt.Errorf("worker_pool.num_workers (%d) cannot exceed rx_queues (%d)", c.WorkerPool.NumWorkers, c.WorkerPool.RxQueues)
	}
	if c.WorkerPool.NumWorkers < c.WorkerPool.RxQueues {
		return fmt.Errorf("worker_pool.num_workers (%d) is less than rx_queues (%d): some queues would go unserved", c.WorkerPool.NumWorkers, c.WorkerPool.RxQueues)
	}
	for i, s := range c.Sessions {
		if net.ParseIP(s.UEIP) == nil {
			return fmt.Errorf("sessions[%d].ue_ip %q is not a valid IP", i, s.UEIP)
		}
		if net.ParseIP(s.GNBIP) == nil {
			return fmt.Errorf("sessions[%d].gnb_ip %q is not a valid IP", i, s.GNBIP)
		}
	}
	return nil
}

// GetN3Address returns the N3 bind address.
func (c *Config) GetN3Address() string {
	return fmt.Sprintf("%s:%d", c.N3.BindAddress, c.N3.Port)
}

// GetN6Address returns the N6 bind address.
func (c *Config) GetN6Address() string {
	return fmt.Sprintf("%s:%d", c.N6.BindAddress, c.N6.Port)
}

// GetAdminAddress returns the admin/status server's bind address.
func (c *Config) GetAdminAddress() string {
	return fmt.Sprintf("%s:%d", c.Admin.BindAddress, c.Admin.Port)
}

// DefaultConfig returns the default single-session setup used when no
// config file is present.
func DefaultConfig() *Config {
	return &Config{
		UPF: UPFIdentity{
			InstanceID: "upf-1",
			Name:       "upf-1",
		},
		N3: N3Config{
			BindAddress:  "0.0.0.0",
			Port:         2152,
			LocalAddress: "127.0.0.1",
		},
		N6: N6Config{
			BindAddress: "0.0.0.0",
			Port:        2153,
		},
		WorkerPool: WorkerPoolConfig{
			RxQueues:   4,
			NumWorkers: 4,
			QueueDepth: 1024,
		},
		Admin: AdminConfig{
			BindAddress: "0.0.0.0",
			Port:        9096,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    9097,
			},
		},
	}
}
