// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

type WakeConfig struct {
	// Defaults: flag defaults applied when not given on the command line
	Defaults DefaultsConfig `yaml:"defaults"`

	// Cache: persistent tag cache settings
	Cache CacheConfig `yaml:"cache"`

	// Logging: diagnostic log destination and level
	Logging LoggingConfig `yaml:"logging"`

	// Tool: revision-control tool invocation settings
	Tool ToolConfig `yaml:"tool"`
}

type DefaultsConfig struct {
	Revset            string `yaml:"revset" validate:"required"`                                 // e.g. ..@-
	Strategy          string `yaml:"strategy" validate:"required,oneof=both tags file conflict-free"` // path derivation strategy
	IgnoreWorkingCopy bool   `yaml:"ignore_working_copy"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required_if=Enabled true"` // e.g. ~/.wake/cache
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

type ToolConfig struct {
	// TimeoutSeconds bounds each jj invocation. 0 means the built-in
	// default (30s).
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=0,lte=3600"`
}

var validate = validator.New()

// Validate checks the struct-tag constraints on the loaded config.
func (c *WakeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ExpandDir resolves a leading ~ in configured directories.
func ExpandDir(dir string) string {
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}

func DefaultConfig() WakeConfig {
	return WakeConfig{
		Defaults: DefaultsConfig{
			Revset:            "..@-",
			Strategy:          "both",
			IgnoreWorkingCopy: false,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "~/.wake/cache",
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Tool: ToolConfig{
			TimeoutSeconds: 30,
		},
	}
}
