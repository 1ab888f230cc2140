// Package config loads and validates queue manifests from YAML or JSON files.
//
// A manifest declares a set of queues by key, kind and tuning parameters so
// deployments can describe their worker topology in a file instead of code.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-task-workers/pkg/schedule"
	"github.com/jdziat/simple-task-workers/pkg/security"
)

// Queue kinds accepted in a manifest.
const (
	KindSequential = "sequential"
	KindPool       = "pool"
	KindAsync      = "async"
)

// Manifest is the root of a queue configuration file.
type Manifest struct {
	Queues []QueueDef `yaml:"queues" json:"queues"`
}

// QueueDef declares a single queue. Duration fields use Go duration syntax
// ("500ms", "1m30s"); Cron takes a standard five-field expression.
type QueueDef struct {
	Key       string `yaml:"key" json:"key"`
	Kind      string `yaml:"kind" json:"kind"`
	Workers   int    `yaml:"workers" json:"workers"`
	Capacity  int    `yaml:"capacity" json:"capacity"`
	Interval  string `yaml:"interval" json:"interval"`
	Cron      string `yaml:"cron" json:"cron"`
	JoinGrace string `yaml:"join_grace" json:"join_grace"`

	RateLimit RateLimitDef `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitDef caps handler invocations per second for a queue.
// A zero PerSecond means unlimited.
type RateLimitDef struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// LoadFile reads a manifest from a YAML or JSON file, chosen by extension,
// and validates it.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var manifest Manifest
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("config: parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("config: parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported format: %s", ext)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks every queue definition and rejects duplicate keys.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Queues))
	for i := range m.Queues {
		def := &m.Queues[i]
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.Key] {
			return fmt.Errorf("config: duplicate queue key %q", def.Key)
		}
		seen[def.Key] = true
	}
	return nil
}

// Validate checks a single queue definition.
func (d *QueueDef) Validate() error {
	if err := security.ValidateKey(d.Key); err != nil {
		return fmt.Errorf("config: queue %q: %w", d.Key, err)
	}

	switch d.Kind {
	case KindSequential, KindPool, KindAsync:
	default:
		return fmt.Errorf("config: queue %q: unknown kind %q", d.Key, d.Kind)
	}

	if d.Workers < 0 {
		return fmt.Errorf("config: queue %q: workers must be non-negative", d.Key)
	}
	if d.Workers > 0 && d.Kind != KindPool {
		return fmt.Errorf("config: queue %q: workers only applies to kind %q", d.Key, KindPool)
	}
	if d.Capacity < 0 {
		return fmt.Errorf("config: queue %q: capacity must be non-negative", d.Key)
	}
	if d.Capacity > security.MaxCapacity {
		return fmt.Errorf("config: queue %q: capacity exceeds maximum %d", d.Key, security.MaxCapacity)
	}

	if d.Interval != "" && d.Cron != "" {
		return fmt.Errorf("config: queue %q: interval and cron are mutually exclusive", d.Key)
	}
	if d.Interval != "" {
		iv, err := time.ParseDuration(d.Interval)
		if err != nil {
			return fmt.Errorf("config: queue %q: invalid interval: %w", d.Key, err)
		}
		if iv <= 0 {
			return fmt.Errorf("config: queue %q: interval must be positive", d.Key)
		}
	}
	if d.Cron != "" {
		if _, err := schedule.ParseCron(d.Cron); err != nil {
			return fmt.Errorf("config: queue %q: %w", d.Key, err)
		}
	}
	if d.JoinGrace != "" {
		if _, err := time.ParseDuration(d.JoinGrace); err != nil {
			return fmt.Errorf("config: queue %q: invalid join_grace: %w", d.Key, err)
		}
	}

	if d.RateLimit.PerSecond < 0 {
		return fmt.Errorf("config: queue %q: rate_limit.per_second must be non-negative", d.Key)
	}
	if d.RateLimit.Burst < 0 {
		return fmt.Errorf("config: queue %q: rate_limit.burst must be non-negative", d.Key)
	}

	return nil
}

// Schedule builds the schedule declared by Interval or Cron.
// Returns nil when the definition declares neither. Call Validate first;
// an unparseable expression here is a programming error and panics.
func (d *QueueDef) Schedule() schedule.Schedule {
	switch {
	case d.Interval != "":
		iv, err := time.ParseDuration(d.Interval)
		if err != nil {
			panic(fmt.Sprintf("config: invalid interval %q: %v", d.Interval, err))
		}
		return schedule.Every(iv)
	case d.Cron != "":
		return schedule.Cron(d.Cron)
	default:
		return nil
	}
}

// JoinGraceDuration parses the JoinGrace field, returning zero when unset.
func (d *QueueDef) JoinGraceDuration() time.Duration {
	if d.JoinGrace == "" {
		return 0
	}
	grace, err := time.ParseDuration(d.JoinGrace)
	if err != nil {
		panic(fmt.Sprintf("config: invalid join_grace %q: %v", d.JoinGrace, err))
	}
	return grace
}
