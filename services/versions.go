package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
)

// MaxInheritanceDepth bounds the inheritsFrom chain.
const MaxInheritanceDepth = 16

// VersionResolver looks up version descriptors in the remote catalog, falling
// back to descriptors already on disk, and resolves their inheritance.
type VersionResolver struct {
	client *api.Client
	layout fileutils.Layout

	mu      sync.Mutex
	catalog *api.Catalog
}

func NewVersionResolver(client *api.Client, layout fileutils.Layout) *VersionResolver {
	return &VersionResolver{client: client, layout: layout}
}

// Catalog returns the remote catalog, fetching it on first use.
func (r *VersionResolver) Catalog() (*api.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.catalog != nil {
		return r.catalog, nil
	}
	catalog, err := r.client.FetchCatalog()
	if err != nil {
		return nil, err
	}
	r.catalog = catalog
	return catalog, nil
}

// Fetch returns the descriptor of id without resolving its parent. When
// persist is set a descriptor fetched from the catalog is written to the
// versions directory.
func (r *VersionResolver) Fetch(id string, persist bool) (*util.VersionConfig, error) {
	catalog, err := r.Catalog()
	if err != nil {
		pterm.Debug.Printfln("Version catalog unavailable, using local descriptors: %v", err)
	}

	if catalog != nil {
		if entry, ok := catalog.Find(id); ok {
			config, raw, err := r.client.FetchVersionConfig(entry.Url)
			switch {
			case err == nil:
				if config.Id == "" {
					config.Id = id
				}
				if config.Type == "" {
					config.Type = entry.Type
				}
				if persist {
					if err := fileutils.AtomicWriteFile(r.layout.VersionJson(id), bytes.NewReader(raw), 0644); err != nil {
						return nil, err
					}
				}
				return config, nil
			case errors.Is(err, util.ErrNetwork) && fileutils.Exists(r.layout.VersionJson(id)):
				pterm.Warning.Printfln("Using stored descriptor of %s: %v", id, err)
			default:
				return nil, err
			}
		}
	}

	data, err := os.ReadFile(r.layout.VersionJson(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", util.ErrVersionNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var config util.VersionConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.layout.VersionJson(id), err)
	}
	if config.Id == "" {
		config.Id = id
	}
	return &config, nil
}

// Resolve returns the effective configuration of id with its whole
// inheritance chain merged in.
func (r *VersionResolver) Resolve(id string) (*util.VersionConfig, error) {
	return r.resolve(id, false)
}

// ResolveForInstall is Resolve that also persists every descriptor it
// fetched remotely, so the version resolves again without network.
func (r *VersionResolver) ResolveForInstall(id string) (*util.VersionConfig, error) {
	return r.resolve(id, true)
}

func (r *VersionResolver) resolve(id string, persist bool) (*util.VersionConfig, error) {
	config, err := r.resolveChain(id, persist, nil)
	if err != nil {
		return nil, err
	}
	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (r *VersionResolver) resolveChain(id string, persist bool, chain []string) (*util.VersionConfig, error) {
	if util.Contains(chain, id) {
		return nil, fmt.Errorf("%w: %s -> %s", util.ErrInheritanceCycle, strings.Join(chain, " -> "), id)
	}
	if len(chain) >= MaxInheritanceDepth {
		return nil, fmt.Errorf("%w: inheritance deeper than %d at %s", util.ErrInheritanceCycle, MaxInheritanceDepth, id)
	}

	config, err := r.Fetch(id, persist)
	if err != nil {
		return nil, err
	}
	if config.InheritsFrom == "" {
		return config, nil
	}

	parent, err := r.resolveChain(config.InheritsFrom, persist, append(chain, id))
	if err != nil {
		return nil, fmt.Errorf("resolving parent of %s: %w", id, err)
	}
	return Merge(parent, config), nil
}

// Merge layers child over parent and returns a new configuration. Libraries
// are parent's followed by child's; every other inherited field is taken from
// the child when set. Neither argument is modified.
func Merge(parent *util.VersionConfig, child *util.VersionConfig) *util.VersionConfig {
	merged := *child

	merged.Libraries = make([]util.Library, 0, len(parent.Libraries)+len(child.Libraries))
	merged.Libraries = append(merged.Libraries, parent.Libraries...)
	merged.Libraries = append(merged.Libraries, child.Libraries...)

	if child.AssetIndex == nil {
		merged.AssetIndex = parent.AssetIndex
	}
	if child.MainClass == "" {
		merged.MainClass = parent.MainClass
	}
	if child.MinecraftArguments == "" {
		merged.MinecraftArguments = parent.MinecraftArguments
	}
	if child.Assets == "" {
		merged.Assets = parent.Assets
	}
	if child.Type == "" {
		merged.Type = parent.Type
	}
	if child.Downloads.Client == nil {
		merged.Downloads.Client = parent.Downloads.Client
		if child.Jar == "" {
			merged.Jar = parent.JarId()
		}
	}
	return &merged
}

func validate(config *util.VersionConfig) error {
	var missing []string
	if config.MainClass == "" {
		missing = append(missing, "mainClass")
	}
	if config.Assets == "" && config.AssetIndex == nil {
		missing = append(missing, "assets")
	}
	if len(config.Libraries) == 0 {
		missing = append(missing, "libraries")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s has no %s", util.ErrIncompleteVersion, config.Id, strings.Join(missing, ", "))
	}
	return nil
}
