// Package config loads the optional olive.yaml project file: tunables
// for the VM and REPL that a user may want to override per-project
// instead of passing flags on every invocation. No example repo in
// this corpus loads YAML from application code directly, so this is
// new wiring built to put gopkg.in/yaml.v3 (already pulled in
// transitively by the wider dependency pool) to direct use.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds Olive's project-level settings, all optional.
type Config struct {
	// GCThreshold is read from olive.yaml but not applied: the VM
	// collects once, when Run completes, whatever its value.
	GCThreshold int `yaml:"gc_threshold"`

	// StackCapacity pre-sizes the VM's operand stack.
	StackCapacity int `yaml:"stack_capacity"`

	// REPLHistory enables persistent readline history across REPL
	// sessions.
	REPLHistory bool `yaml:"repl_history"`

	// HistoryFile is where REPL history is persisted, when REPLHistory
	// is enabled.
	HistoryFile string `yaml:"history_file"`
}

// Default returns the zero-tuning configuration the VM and CLI fall
// back to when no olive.yaml is present.
func Default() Config {
	return Config{
		StackCapacity: 256,
		REPLHistory:   true,
		HistoryFile:   ".olive_history",
	}
}

// Load reads and parses an olive.yaml file at path, starting from
// Default() so a partial file only overrides what it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional behaves like Load but returns Default() with a nil
// error when path does not exist, since olive.yaml is never required.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
