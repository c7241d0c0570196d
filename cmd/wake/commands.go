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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/wake/cmd/wake/config"
	"github.com/AleutianAI/wake/pkg/ux"
)

// --- Global Command Variables ---
var (
	revset            string
	pathStrategy      string
	ignoreWorkingCopy bool
	noCache           bool
	personalityLevel  string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "wake",
		Short: "Render a Jujutsu vault history as a Gource custom log",
		Long: `Wake converts the change history of a Jujutsu repository holding
an Obsidian-style vault into a Gource custom-log event stream, grouping
notes by their front-matter tags.

Records go to stdout, one per line: timestamp|author|type|path.
Diagnostics go to stderr, so the output can be piped straight into
Gource:

    wake emit ~/vault | gource --log-format custom -`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
			if err := config.Load(); err != nil {
				ux.Error("Failed to load configuration: " + err.Error())
				os.Exit(1)
			}
		},
	}

	// --- Emit ---
	emitCmd = &cobra.Command{
		Use:   "emit [vault-path]",
		Short: "Emit the event stream for a vault's revision history",
		Args:  cobra.MaximumNArgs(1),
		Run:   runEmit, // Defined in cmd_emit.go
	}

	// --- Strategies ---
	strategiesCmd = &cobra.Command{
		Use:   "strategies",
		Short: "List the available path derivation strategies",
		Run:   runStrategies, // Defined in cmd_strategies.go
	}

	// --- Cache ---
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent tag cache",
	}
	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show tag cache size and entry count",
		Run:   runCacheStats, // Defined in cmd_cache.go
	}
	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached tag lookup",
		Run:   runCacheClear, // Defined in cmd_cache.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&personalityLevel, "personality", "p", "",
		"output personality (full/standard/minimal/machine)")

	emitCmd.Flags().StringVarP(&revset, "revset", "r", "",
		"jj revset to process (default from config, usually ..@-)")
	emitCmd.Flags().StringVarP(&pathStrategy, "path-strategy", "s", "",
		"path derivation strategy: both, tags, file, conflict-free")
	emitCmd.Flags().BoolVar(&ignoreWorkingCopy, "ignore-working-copy", false,
		"do not snapshot the working copy when reading the jj log")
	emitCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"skip the persistent tag cache for this run")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(emitCmd, strategiesCmd, cacheCmd)
}
