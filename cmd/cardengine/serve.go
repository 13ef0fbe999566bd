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
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/adaptive-card-engine/internal/cardengine"
	"github.com/your-org/adaptive-card-engine/internal/catalog"
	"github.com/your-org/adaptive-card-engine/internal/config"
	"github.com/your-org/adaptive-card-engine/internal/health"
	"github.com/your-org/adaptive-card-engine/internal/resilience"
	"github.com/your-org/adaptive-card-engine/internal/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine as an HTTP service exposing POST /card and GET /health",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	errHandler := resilience.NewErrorHandler(logger)

	orch, store := buildOrchestrator(cfg, logger)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close catalog store", zap.Error(err))
			}
		}()
	}

	healthMgr := buildHealthManager(cfg, store, logger)
	validator := webhook.NewValidator(cfg.Webhook.Secret, logger)
	if validator.Enabled() {
		logger.Info("inbound request signature validation enabled")
	}

	router := gin.Default()

	router.GET("/health", gin.WrapF(healthMgr.HTTPHandler()))

	router.POST("/card", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "INVOCATION_PARSE_ERROR", "message": err.Error()}})
			return
		}

		if err := validator.Validate(c.Request, body); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": err.Error()}})
			return
		}

		out, err := orch.Card(body)
		if err != nil {
			errHandler.LogError(err, "card")
			c.Data(http.StatusInternalServerError, "application/json", out)
			return
		}

		status := http.StatusOK
		if code, isErr := cardengine.ErrorCodeFromResult(out); isErr {
			status = httpStatusForErrorCode(code)
			logger.Warn("card operation returned an error envelope", zap.String("code", code))
		}
		c.Data(status, "application/json", out)
	})

	logger.Info("starting cardengine HTTP service",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("sandbox", cfg.Resolver.Sandbox))

	if err := router.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

// httpStatusForErrorCode maps the stable error codes in the card operation's
// {error:{code,message}} envelope to an HTTP status, the way
// resilience.ErrorHandler.categorizeError maps a ServiceError's code to a
// status for its own HTTP responses. The envelope's code string itself is
// never altered by this mapping; it only selects a status alongside the
// unchanged body.
func httpStatusForErrorCode(code string) int {
	switch cardengine.ResolveErrorKind(code) {
	case cardengine.ResolveNotFound:
		return http.StatusNotFound
	case cardengine.ResolveInvalidJSON:
		return http.StatusUnprocessableEntity
	case cardengine.ResolveIOError:
		return http.StatusBadGateway
	}
	if code == "INVOCATION_PARSE_ERROR" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// buildHealthManager wires the asset-base and catalog-db checkers against
// this run's resolved configuration and store.
func buildHealthManager(cfg *config.Config, store *catalog.Store, logger *zap.Logger) *health.Manager {
	mgr := health.NewManager("adaptive-card-engine", "1.0.0", logger)
	mgr.AddCheckerFunc("asset-base", health.AssetBaseChecker(cfg.Resolver.AssetBase, cfg.Resolver.Sandbox).Check)

	if store != nil {
		mgr.AddCheckerFunc("catalog-db", health.CatalogDBChecker(store.DB()).Check)
	}
	return mgr
}
