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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/wake/cmd/wake/config"
	"github.com/AleutianAI/wake/pkg/ux"
	"github.com/AleutianAI/wake/services/timeline/strategy"
)

// runStrategies lists the path derivation strategies.
func runStrategies(cmd *cobra.Command, args []string) {
	ux.Title("Path derivation strategies")
	for _, s := range strategy.All() {
		name := string(s)
		if name == config.Global.Defaults.Strategy {
			name += " (default)"
		}
		ux.KeyValue(name, s.Description())
	}
}
