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

package cardengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ResolveErrorKind discriminates the AssetResolveError taxonomy.
type ResolveErrorKind string

// Supported resolve error kinds.
const (
	ResolveNotFound    ResolveErrorKind = "NotFound"
	ResolveInvalidJSON ResolveErrorKind = "InvalidJson"
	ResolveIOError     ResolveErrorKind = "IoError"
)

// ResolveError is returned by the Asset Resolver when no layer produces a
// usable document.
type ResolveError struct {
	Kind   ResolveErrorKind
	Reason string
}

func (e *ResolveError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func notFoundErr(name string) *ResolveError {
	return &ResolveError{Kind: ResolveNotFound, Reason: fmt.Sprintf("no layer resolved %q", name)}
}

func notFoundPathErr(path string) *ResolveError {
	return &ResolveError{Kind: ResolveNotFound, Reason: fmt.Sprintf("asset not found: %s", path)}
}

func invalidJSONErr(reason string) *ResolveError {
	return &ResolveError{Kind: ResolveInvalidJSON, Reason: reason}
}

func ioErr(reason string) *ResolveError {
	return &ResolveError{Kind: ResolveIOError, Reason: reason}
}

// HostResolver is the optional last-resort capability a host may supply:
// it keeps the engine pure when no filesystem or host bridge exists.
type HostResolver interface {
	ResolveAsset(nameOrPath string) (raw []byte, found bool, err error)
}

// CatalogLookup is implemented by the catalog registry. It
// is declared here, not imported from internal/catalog, so the deterministic
// core never depends on the SQLite-backed package; the Orchestrator wires
// a concrete *catalog.Store in through this interface.
type CatalogLookup interface {
	Lookup(name string) (path string, inlineJSON json.RawMessage, ok bool)
}

// Resolver implements the Asset Resolver contract: resolve a
// CardSource to raw card JSON via a fixed, first-hit-wins layer order.
type Resolver struct {
	// Sandbox disables the environment registry files and the pack base
	// directory: only the inline registry, the Catalog lookup, and the
	// HostResolver capability are consulted. A path named by the inline
	// registry or by a Catalog entry is still read from disk.
	Sandbox bool

	AssetBase         string
	AssetRegistryFile string
	CatalogFile       string

	Catalog CatalogLookup
	Host    HostResolver

	// readFile is overridable for tests; defaults to os.ReadFile.
	readFile func(string) ([]byte, error)
}

// NewResolver constructs a Resolver from resolved configuration. catalog and
// host may be nil when no such layer is configured for this invocation.
func NewResolver(assetBase, assetRegistryFile, catalogFile string, sandbox bool, catalog CatalogLookup, host HostResolver) *Resolver {
	if assetBase == "" {
		assetBase = "assets"
	}
	return &Resolver{
		Sandbox:           sandbox,
		AssetBase:         assetBase,
		AssetRegistryFile: assetRegistryFile,
		CatalogFile:       catalogFile,
		Catalog:           catalog,
		Host:              host,
		readFile:          os.ReadFile,
	}
}

// Resolve tries each layer in a fixed order, with the catalog registry
// inserted between the inline registry override and the environment
// asset-registry file.
func (r *Resolver) Resolve(source CardSource, spec CardSpec) (json.RawMessage, error) {
	switch source {
	case SourceInline, "":
		if len(spec.InlineJSON) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return spec.InlineJSON, nil
	case SourceAsset:
		return r.resolveLayered(spec.AssetPath, source, spec)
	case SourceCatalog:
		return r.resolveLayered(spec.CatalogName, source, spec)
	default:
		return nil, invalidJSONErr(fmt.Sprintf("unknown card source %q", source))
	}
}

func (r *Resolver) resolveLayered(name string, source CardSource, spec CardSpec) (json.RawMessage, error) {
	if name == "" {
		return nil, notFoundErr("(empty logical name)")
	}

	// (a) inline asset_registry override.
	if path, ok := spec.AssetRegistry[name]; ok {
		return r.readAndParse(path)
	}

	// (b) catalog registry (SQLite).
	if r.Catalog != nil {
		if path, inlineJSON, ok := r.Catalog.Lookup(name); ok {
			if len(inlineJSON) > 0 {
				return inlineJSON, nil
			}
			return r.readAndParse(path)
		}
	}

	if !r.Sandbox {
		// (c) environment asset-registry file.
		if r.AssetRegistryFile != "" {
			if path, ok := r.lookupRegistryFile(r.AssetRegistryFile, name); ok {
				return r.readAndParse(path)
			}
		}

		// (d) environment catalog-registry file.
		if r.CatalogFile != "" {
			if path, ok := r.lookupRegistryFile(r.CatalogFile, name); ok {
				return r.readAndParse(path)
			}
		}

		// (e) pack base directory.
		var path string
		if source == SourceCatalog {
			path = filepath.Join(r.AssetBase, name+".json")
		} else {
			path = filepath.Join(r.AssetBase, name)
		}
		if raw, err := r.readAndParse(path); err == nil {
			return raw, nil
		}
	}

	// (f) host resolver capability: last resort, available even sandboxed.
	if r.Host != nil {
		raw, found, err := r.Host.ResolveAsset(name)
		if err != nil {
			return nil, ioErr(err.Error())
		}
		if found {
			return parseJSON(raw)
		}
	}

	return nil, notFoundErr(name)
}

func (r *Resolver) lookupRegistryFile(registryPath, name string) (string, bool) {
	raw, err := r.readFile(registryPath)
	if err != nil {
		return "", false
	}
	var registry map[string]string
	if err := json.Unmarshal(raw, &registry); err != nil {
		return "", false
	}
	path, ok := registry[name]
	return path, ok
}

func (r *Resolver) readAndParse(path string) (json.RawMessage, error) {
	raw, err := r.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundPathErr(path)
		}
		return nil, ioErr(err.Error())
	}
	return parseJSON(raw)
}

func parseJSON(raw []byte) (json.RawMessage, error) {
	var probe interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, invalidJSONErr(err.Error())
	}
	return json.RawMessage(raw), nil
}
