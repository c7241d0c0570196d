// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/wake/cmd/wake/config"
	"github.com/AleutianAI/wake/pkg/ux"
	"github.com/AleutianAI/wake/services/timeline/vault"
)

// openConfiguredCache opens the persistent tag cache from config.
func openConfiguredCache() *vault.BadgerCache {
	cfg := config.Global
	if !cfg.Cache.Enabled || cfg.Cache.Dir == "" {
		ux.Error("The persistent tag cache is disabled in the configuration")
		os.Exit(1)
	}
	cache, err := vault.OpenBadgerCache(vault.DefaultBadgerConfig(config.ExpandDir(cfg.Cache.Dir)))
	if err != nil {
		ux.Error("Could not open the tag cache: " + err.Error())
		os.Exit(1)
	}
	return cache
}

// runCacheStats reports entry count and on-disk size.
func runCacheStats(cmd *cobra.Command, args []string) {
	cache := openConfiguredCache()
	defer cache.Close()

	stats, err := cache.Stats()
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	ux.Title("Tag cache")
	ux.KeyValue("directory", config.ExpandDir(config.Global.Cache.Dir))
	ux.KeyValue("entries", fmt.Sprintf("%d", stats.Entries))
	ux.KeyValue("lsm bytes", fmt.Sprintf("%d", stats.LSMBytes))
	ux.KeyValue("vlog bytes", fmt.Sprintf("%d", stats.VLogBytes))
}

// runCacheClear drops every cached tag lookup.
func runCacheClear(cmd *cobra.Command, args []string) {
	cache := openConfiguredCache()
	defer cache.Close()

	if err := cache.Clear(); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ux.Success("Tag cache cleared")
}
