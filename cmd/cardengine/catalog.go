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
	"os"

	"github.com/spf13/cobra"

	"github.com/your-org/adaptive-card-engine/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SQLite-backed catalog registry",
	}
	cmd.AddCommand(newCatalogAddCmd(), newCatalogListCmd(), newCatalogRemoveCmd())
	return cmd
}

func newCatalogAddCmd() *cobra.Command {
	var assetPath string
	var inlinePath string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a catalog entry, pointing at an asset path or inline card JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if (assetPath == "") == (inlinePath == "") {
				return fmt.Errorf("exactly one of --asset-path or --inline-file is required")
			}

			store, closeStore, err := openCatalogStore()
			if err != nil {
				return err
			}
			defer closeStore()

			entry := catalog.Entry{Name: args[0]}
			if assetPath != "" {
				entry.Kind = catalog.KindAsset
				entry.Path = assetPath
			} else {
				raw, err := os.ReadFile(inlinePath)
				if err != nil {
					return fmt.Errorf("failed to read inline card file: %w", err)
				}
				var probe interface{}
				if err := json.Unmarshal(raw, &probe); err != nil {
					return fmt.Errorf("inline card file is not valid JSON: %w", err)
				}
				entry.Kind = catalog.KindInline
				entry.InlineJSON = raw
			}

			if err := store.Put(entry); err != nil {
				return fmt.Errorf("failed to register catalog entry: %w", err)
			}
			fmt.Printf("registered %q (%s)\n", entry.Name, entry.Kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&assetPath, "asset-path", "", "Filesystem path the Asset Resolver reads for this name")
	cmd.Flags().StringVar(&inlinePath, "inline-file", "", "Path to a JSON file whose contents are stored inline")
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered catalog entries",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, closeStore, err := openCatalogStore()
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list catalog entries: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("(no catalog entries registered)")
				return nil
			}
			for _, entry := range entries {
				switch entry.Kind {
				case catalog.KindInline:
					fmt.Printf("%s\tinline\t(%d bytes)\n", entry.Name, len(entry.InlineJSON))
				default:
					fmt.Printf("%s\tasset\t%s\n", entry.Name, entry.Path)
				}
			}
			return nil
		},
	}
}

func newCatalogRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, closeStore, err := openCatalogStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Delete(args[0]); err != nil {
				return fmt.Errorf("failed to remove catalog entry: %w", err)
			}
			fmt.Printf("removed %q\n", args[0])
			return nil
		},
	}
}

// openCatalogStore opens the configured catalog database directly, bypassing
// the sandbox short-circuit in buildOrchestrator: catalog management is an
// operator action against the registry itself, not card resolution.
func openCatalogStore() (*catalog.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	store, err := catalog.NewStore(cfg.Catalog.DBPath, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to open catalog store: %w", err)
	}

	closeFn := func() {
		_ = store.Close()
		_ = logger.Sync()
	}
	return store, closeFn, nil
}
