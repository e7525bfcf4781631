package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/MrEthical07/pinlock"
)

// loadConfig layers an optional TOML file and PINLOCK_* variables over the
// defaults.
func loadConfig(path string) (pinlock.Config, error) {
	cfg := pinlock.DefaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return pinlock.Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return pinlock.Config{}, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := pinlock.ApplyEnv(&cfg); err != nil {
		return pinlock.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return pinlock.Config{}, err
	}
	return cfg, nil
}
