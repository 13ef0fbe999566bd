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

package main

import (
	"go.uber.org/zap"

	"github.com/your-org/adaptive-card-engine/internal/advisory"
	"github.com/your-org/adaptive-card-engine/internal/cardengine"
	"github.com/your-org/adaptive-card-engine/internal/catalog"
	"github.com/your-org/adaptive-card-engine/internal/config"
)

// buildOrchestrator wires an Orchestrator from resolved configuration. The
// returned *catalog.Store is nil when no catalog database path is
// configured, when sandbox mode is on, or when opening the catalog database
// failed; the engine then proceeds without it (render/validate/interact can
// still serve Inline sources).
func buildOrchestrator(cfg *config.Config, logger *zap.Logger) (*cardengine.Orchestrator, *catalog.Store) {
	var store *catalog.Store
	if cfg.Catalog.DBPath != "" && !cfg.Resolver.Sandbox {
		s, err := catalog.NewStore(cfg.Catalog.DBPath, logger)
		if err != nil {
			logger.Warn("catalog store unavailable, continuing without it", zap.Error(err))
		} else {
			store = s
		}
	}

	var catalogLookup cardengine.CatalogLookup
	if store != nil {
		catalogLookup = store
	}

	resolver := cardengine.NewResolver(
		cfg.Resolver.AssetBase,
		cfg.Resolver.AssetRegistry,
		cfg.Resolver.CatalogFile,
		cfg.Resolver.Sandbox,
		catalogLookup,
		nil, // no host-resolver capability from the CLI front door
	)

	orch := cardengine.NewOrchestrator(
		resolver,
		cardengine.NewSimpleExpressionEngine(),
		cardengine.NewValidator(),
		cardengine.NewAnalyzer(),
		cardengine.NewNormalizer(),
		advisory.NewAdvisor(),
	)

	return orch, store
}
