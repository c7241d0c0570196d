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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/wake/cmd/wake/config"
	"github.com/AleutianAI/wake/pkg/logging"
	"github.com/AleutianAI/wake/pkg/ux"
	"github.com/AleutianAI/wake/services/timeline"
	"github.com/AleutianAI/wake/services/timeline/emit"
	"github.com/AleutianAI/wake/services/timeline/jj"
	"github.com/AleutianAI/wake/services/timeline/strategy"
	"github.com/AleutianAI/wake/services/timeline/vault"
)

// runEmit converts a vault's revision history into the record stream.
func runEmit(cmd *cobra.Command, args []string) {
	cfg := config.Global

	vaultPath := "."
	if len(args) > 0 {
		vaultPath = args[0]
	}
	absPath, err := filepath.Abs(vaultPath)
	if err != nil {
		ux.Error("Could not resolve vault path: " + err.Error())
		os.Exit(1)
	}

	// Flags override configured defaults.
	runRevset := cfg.Defaults.Revset
	if revset != "" {
		runRevset = revset
	}
	strategyName := cfg.Defaults.Strategy
	if pathStrategy != "" {
		strategyName = pathStrategy
	}
	strat, err := strategy.Parse(strategyName)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ignoreWC := cfg.Defaults.IgnoreWorkingCopy || ignoreWorkingCopy

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "wake",
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Close()

	client, err := jj.NewClient(absPath, time.Duration(cfg.Tool.TimeoutSeconds)*time.Second)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	var cache vault.TagCache = vault.NewMemoryCache()
	if cfg.Cache.Enabled && !noCache {
		cacheCfg := vault.DefaultBadgerConfig(config.ExpandDir(cfg.Cache.Dir))
		cacheCfg.Logger = logger.Slog()
		persistent, err := vault.OpenBadgerCache(cacheCfg)
		if err != nil {
			// The cache is an optimization; a locked or corrupt cache
			// must not block the run.
			ux.Warning("Persistent tag cache unavailable: " + err.Error())
			logger.Warn("persistent tag cache unavailable", "error", err)
		} else {
			defer persistent.Close()
			cache = vault.NewLayeredCache(vault.NewMemoryCache(), persistent)
		}
	}

	resolver := vault.NewResolver(client, cache, logger.Slog())
	engine := strategy.NewEngine(strat)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	emitter := emit.NewEmitter(out)

	ux.Info(fmt.Sprintf("Processing revset '%s' of vault at %s", runRevset, absPath))
	ux.KeyValue("strategy", fmt.Sprintf("%s (%s)", strat, strat.Description()))

	pipeline := timeline.NewPipeline(client, resolver, engine, emitter, logger.Slog())
	count, err := pipeline.Run(context.Background(), jj.LogOptions{
		Revset:            runRevset,
		IgnoreWorkingCopy: ignoreWC,
	})
	if err != nil {
		out.Flush()
		ux.Error(err.Error())
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	ux.Success(fmt.Sprintf("Emitted %d revisions", count))
}
