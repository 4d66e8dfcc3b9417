package shard

import "time"

// Endpoint is the displayable part of a DSN. It never carries a password.
type Endpoint struct {
	Host     string `json:"host" yaml:"host"`
	Database string `json:"database" yaml:"database"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
}

// Info describes a configured shard for listings
type Info struct {
	Name     string            `json:"name" yaml:"name"`
	Driver   string            `json:"driver" yaml:"driver"`
	Host     string            `json:"host" yaml:"host"`
	Database string            `json:"database" yaml:"database"`
	User     string            `json:"user,omitempty" yaml:"user,omitempty"`
	Enabled  bool              `json:"enabled" yaml:"enabled"`
	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// HealthStatus is the result of pinging one shard
type HealthStatus struct {
	ShardName string        `json:"shard" yaml:"shard"`
	Healthy   bool          `json:"healthy" yaml:"healthy"`
	Error     error         `json:"-" yaml:"-"`
	Latency   time.Duration `json:"latency" yaml:"latency"`
}
