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

package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// AssetBaseChecker reports whether the asset resolver's pack base directory
// is present and readable. A missing directory is degraded, not unhealthy:
// the resolver still works for Inline sources and the host-resolver
// capability when no filesystem layer is usable.
func AssetBaseChecker(assetBase string, sandbox bool) CheckerFunc {
	return func(_ context.Context) CheckResult {
		if sandbox {
			return CheckResult{
				Status:   StatusHealthy,
				Metadata: map[string]interface{}{"sandbox": true},
			}
		}

		info, err := os.Stat(assetBase)
		if err != nil {
			return CheckResult{
				Status: StatusDegraded,
				Error:  fmt.Sprintf("asset base %q not reachable: %v", assetBase, err),
			}
		}
		if !info.IsDir() {
			return CheckResult{
				Status: StatusDegraded,
				Error:  fmt.Sprintf("asset base %q is not a directory", assetBase),
			}
		}

		return CheckResult{
			Status:   StatusHealthy,
			Metadata: map[string]interface{}{"asset_base": assetBase},
		}
	}
}

// CatalogDBChecker reports whether the catalog registry's SQLite database
// is reachable.
func CatalogDBChecker(db *sql.DB) CheckerFunc {
	return func(ctx context.Context) CheckResult {
		if db == nil {
			return CheckResult{Status: StatusDegraded, Error: "catalog store not configured"}
		}

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: fmt.Sprintf("catalog db ping failed: %v", err)}
		}

		return CheckResult{Status: StatusHealthy}
	}
}
