package config

import (
	"errors"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
	if err := Testing().Validate(); err != nil {
		t.Fatalf("Testing() should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, ErrInvalidResolution},
		{"negative height", func(c *Config) { c.Height = -1 }, ErrInvalidResolution},
		{"zero fps", func(c *Config) { c.TargetFPS = 0 }, ErrInvalidFPS},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidSampleRate},
		{"zero tempo", func(c *Config) { c.Tempo = 0 }, ErrInvalidTempo},
		{"zero loop duration", func(c *Config) { c.LoopDuration = 0 }, ErrInvalidLoopDuration},
		{"negative max nodes", func(c *Config) { c.MaxNodes = -1 }, ErrInvalidMaxNodes},
		{"negative max edges", func(c *Config) { c.MaxEdges = -1 }, ErrInvalidMaxEdges},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Width = 1
	if cfg.Width == 1 {
		t.Error("Clone() must not share state with the original")
	}
}
