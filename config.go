package texcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the cache configuration.
//
//	# texcache.yaml
//	budget: 512MiB
//	failure_backoff: 30s
//	failure_backoff_size: 2048
//	workers: 4
//
// Budget accepts human sizes ("256MiB", "1.5GB", "0" for TTL-only) or a
// plain byte count. Binary suffixes are used for both KB and KiB forms,
// matching how GPU memory is reported.
type Config struct {
	Budget             ByteSize      `yaml:"budget"`
	FailureBackoff     time.Duration `yaml:"failure_backoff"`
	FailureBackoffSize int           `yaml:"failure_backoff_size"`

	// Workers is the predecode concurrency used by SubmitAll callers
	// such as the material loader. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() Config {
	return Config{
		Budget:             ByteSize(DefaultBudget),
		FailureBackoffSize: DefaultBackoffSize,
	}
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("texcache: open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseConfig(f)
}

// ParseConfig decodes a YAML config from r.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("texcache: parse config: %w", err)
	}
	if cfg.FailureBackoff < 0 {
		return Config{}, fmt.Errorf("texcache: parse config: negative failure_backoff %v", cfg.FailureBackoff)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("texcache: parse config: negative workers %d", cfg.Workers)
	}
	return cfg, nil
}

// Options converts the config into cache options.
func (c Config) Options() []Option {
	opts := []Option{WithBudget(int64(c.Budget))}
	if c.FailureBackoff > 0 {
		opts = append(opts, WithFailureBackoff(c.FailureBackoff))
	}
	if c.FailureBackoffSize > 0 {
		opts = append(opts, WithFailureBackoffSize(c.FailureBackoffSize))
	}
	return opts
}

// WorkerCount returns the effective predecode concurrency.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ByteSize is a byte count that unmarshals from human-readable sizes.
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

// String returns the size in binary units, e.g. "256MiB".
func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
