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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inputPath string

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an Adaptive Card invocation (mode=Render)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInvocation("Render")
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", `Invocation JSON file, or "-" for stdin`)
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an Adaptive Card invocation (mode=Validate)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInvocation("Validate")
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", `Invocation JSON file, or "-" for stdin`)
	return cmd
}

func newInteractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interact",
		Short: "Run an invocation that carries an interaction (mode=RenderAndValidate)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInvocation("")
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", `Invocation JSON file, or "-" for stdin`)
	return cmd
}

// runInvocation reads an Invocation document, forces its mode when
// forceMode is non-empty (the render/validate subcommands pin the mode so a
// caller does not have to repeat it in every fixture file), runs it through
// the engine, and prints the result or error envelope to stdout.
func runInvocation(forceMode string) error {
	raw, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read invocation: %w", err)
	}

	if forceMode != "" {
		raw, err = overrideMode(raw, forceMode)
		if err != nil {
			return fmt.Errorf("failed to apply mode override: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	orch, store := buildOrchestrator(cfg, logger)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close catalog store", zap.Error(err))
			}
		}()
	}

	out, err := orch.Card(raw)
	if err != nil {
		return fmt.Errorf("engine failed: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func overrideMode(raw []byte, mode string) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc["mode"] = mode
	return json.Marshal(doc)
}
