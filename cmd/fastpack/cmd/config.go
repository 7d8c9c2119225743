package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// benchConfig is the resolved configuration of the bench command.
type benchConfig struct {
	Iterations       int
	StreamIterations int
	StreamCount      int
	Datasets         []string
	Codecs           []string
}

// benchFileConfig maps bench.toml keys.
type benchFileConfig struct {
	Iterations       int      `toml:"iterations"`
	StreamIterations int      `toml:"stream_iterations"`
	StreamCount      int      `toml:"stream_count"`
	Datasets         []string `toml:"datasets"`
	Codecs           []string `toml:"codecs"`
}

var knownCodecs = []string{"fastpack", "fastpack+basic", "json", "yaml", "msgpack", "bson"}

func defaultBenchConfig() benchConfig {
	return benchConfig{
		Iterations:       10000,
		StreamIterations: 100,
		StreamCount:      1000,
		Datasets:         []string{"simple", "complex", "large_list", "extended"},
		Codecs:           []string{"json", "yaml", "msgpack", "bson", "fastpack"},
	}
}

// loadBenchConfig overlays the TOML file at path on the defaults.
func loadBenchConfig(path string) (benchConfig, error) {
	cfg := defaultBenchConfig()

	var raw benchFileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return benchConfig{}, fmt.Errorf("load bench config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return benchConfig{}, fmt.Errorf("load bench config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("iterations") {
		cfg.Iterations = raw.Iterations
	}
	if meta.IsDefined("stream_iterations") {
		cfg.StreamIterations = raw.StreamIterations
	}
	if meta.IsDefined("stream_count") {
		cfg.StreamCount = raw.StreamCount
	}
	if meta.IsDefined("datasets") {
		cfg.Datasets = trimAll(raw.Datasets)
	}
	if meta.IsDefined("codecs") {
		cfg.Codecs = trimAll(raw.Codecs)
	}

	if err := cfg.validate(); err != nil {
		return benchConfig{}, fmt.Errorf("load bench config: %w", err)
	}
	return cfg, nil
}

func (c benchConfig) validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.StreamIterations < 0 || c.StreamCount < 0 {
		return fmt.Errorf("stream settings must not be negative")
	}
	for _, name := range c.Codecs {
		if !slices.Contains(knownCodecs, name) {
			return fmt.Errorf("unknown codec %q (expected one of %s)", name, strings.Join(knownCodecs, ", "))
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
