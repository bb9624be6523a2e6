package services

import (
	"fmt"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
)

type Stage string

const (
	StageResolve   Stage = "resolve"
	StageLibraries Stage = "libraries"
	StageClient    Stage = "client"
	StageNatives   Stage = "natives"
	StageAssets    Stage = "assets"
	StageDone      Stage = "done"
)

type Progress struct {
	Stage   Stage
	Done    int
	Total   int
	Message string
}

type ProgressFunc func(Progress)

// Installer puts everything a version needs on disk and records it as
// installed once all of it verified.
type Installer struct {
	client    *api.Client
	layout    fileutils.Layout
	versions  *VersionResolver
	libraries *LibraryResolver
	natives   *NativeExtractor
	assets    *AssetSync
	installed *fileutils.InstalledSet
}

func NewInstaller(client *api.Client, layout fileutils.Layout, versions *VersionResolver, libraries *LibraryResolver,
	natives *NativeExtractor, assets *AssetSync, installed *fileutils.InstalledSet) *Installer {
	return &Installer{
		client:    client,
		layout:    layout,
		versions:  versions,
		libraries: libraries,
		natives:   natives,
		assets:    assets,
		installed: installed,
	}
}

func report(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}

// Install resolves id and syncs its libraries, client jar, natives and
// assets. Installs of the same id are serialized by a file lock.
func (in *Installer) Install(id string, progress ProgressFunc) (err error) {
	unlock, err := fileutils.LockVersion(in.layout, id)
	if err != nil {
		return fmt.Errorf("locking %s: %w", id, err)
	}
	defer func() {
		if uerr := unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	if err := in.installed.Begin(id); err != nil {
		return err
	}

	report(progress, Progress{Stage: StageResolve, Message: id})
	config, err := in.versions.ResolveForInstall(id)
	if err != nil {
		return err
	}

	// The client jar of an inherited version lands in the parent's directory
	// without making the parent installed.
	if jarId := config.JarId(); jarId != id && !in.installed.Contains(jarId) {
		if err := in.installed.Begin(jarId); err != nil {
			return err
		}
	}

	report(progress, Progress{Stage: StageLibraries, Total: len(config.Libraries)})
	_, omitted, err := in.libraries.ResolveAll(config.Libraries, true)
	if err != nil {
		return err
	}
	if len(omitted) > 0 {
		pterm.Warning.Printfln("%d libraries of %s could not be installed", len(omitted), id)
	}

	report(progress, Progress{Stage: StageClient, Message: config.JarId()})
	if err := ensureClientJar(in.client, in.layout, config); err != nil {
		return err
	}

	report(progress, Progress{Stage: StageNatives})
	if _, err := in.natives.Extract(config.Libraries, in.layout.NativesDir(id)); err != nil {
		return fmt.Errorf("natives of %s: %w", id, err)
	}

	if err := in.syncAssets(config, progress); err != nil {
		return err
	}

	if err := in.installed.Add(id); err != nil {
		return err
	}
	report(progress, Progress{Stage: StageDone, Message: id})
	return nil
}

// ensureClientJar makes sure the jar the version runs from is present and
// verified, downloading it when the configuration says where from.
func ensureClientJar(client *api.Client, layout fileutils.Layout, config *util.VersionConfig) error {
	jar := layout.ClientJar(config.JarId())
	var hash string
	if config.Downloads.Client != nil {
		hash = config.Downloads.Client.Sha1
	}
	if fileutils.Verified(jar, hash) {
		return nil
	}
	if config.Downloads.Client == nil || config.Downloads.Client.Url == "" {
		return fmt.Errorf("%w: %s has no client jar and no download for it", util.ErrIncompleteVersion, config.Id)
	}
	if err := client.FetchVerified(config.Downloads.Client.Url, jar, hash); err != nil {
		return fmt.Errorf("client jar of %s: %w", config.Id, err)
	}
	return nil
}

func (in *Installer) syncAssets(config *util.VersionConfig, progress ProgressFunc) error {
	indexId := config.AssetIndexId()

	var index util.AssetIndex
	var err error
	if config.AssetIndex != nil && config.AssetIndex.Url != "" {
		index, err = in.assets.FetchIndex(config.AssetIndex.Url, indexId, config.AssetIndex.Sha1)
	} else {
		index, err = in.assets.LoadIndex(indexId)
	}
	if err != nil {
		return fmt.Errorf("asset index %s: %w", indexId, err)
	}

	report(progress, Progress{Stage: StageAssets, Total: len(index), Message: indexId})
	return in.assets.SyncAll(index, func(done int, total int) {
		report(progress, Progress{Stage: StageAssets, Done: done, Total: total})
	})
}
