package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like
// "40s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	// DBDSN selects the postgres store; empty runs on the in-memory one.
	DBDSN      string `yaml:"db_dsn"`
	MediaAppID string `yaml:"media_app_id"`
	// FallbackChannel names the media channel when a call id is absent.
	FallbackChannel string   `yaml:"fallback_channel"`
	RingTimeout     Duration `yaml:"ring_timeout"`
}

func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		FallbackChannel: "lobby",
		RingTimeout:     Duration(40 * time.Second),
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.FallbackChannel == "" {
		cfg.FallbackChannel = "lobby"
	}

	return cfg, nil
}
