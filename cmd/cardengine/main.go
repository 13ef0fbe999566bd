// Copyright 2024 Adaptive Card Engine Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides the Adaptive Card Engine CLI/HTTP front door. It
// marshals host invocations in and results out around the deterministic
// internal/cardengine core, keeping that marshaling boundary a thin adapter
// rather than part of the core itself.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/adaptive-card-engine/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "cardengine",
		Short: "Adaptive Card Engine CLI",
		Long: `A sandboxed rendering and interaction-normalization engine for
Adaptive Card v1.6 documents: resolves a card source, evaluates template
bindings, validates structure, tallies features, and normalizes host
interactions into declarative state/session update instructions.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(
		newRenderCmd(),
		newValidateCmd(),
		newInteractCmd(),
		newCatalogCmd(),
		newServeCmd(),
		newApplyDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadWithOptions(config.LoadOptions{TestMode: true, ValidateRequired: false})
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Logging.Format == "console" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}
