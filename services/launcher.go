package services

import (
	"fmt"
	"os"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util/config"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
)

// Launcher wires the services of one game root together.
type Launcher struct {
	Config    *config.Config
	Client    *api.Client
	Layout    fileutils.Layout
	Versions  *VersionResolver
	Libraries *LibraryResolver
	Natives   *NativeExtractor
	Assets    *AssetSync
	Installed *fileutils.InstalledSet
	Installer *Installer
	Tweaker   TweakerRule
}

func New(cfg *config.Config) (*Launcher, error) {
	layout := fileutils.NewLayout(cfg.GameRoot)
	if err := fileutils.Setup(layout); err != nil {
		return nil, fmt.Errorf("preparing %s: %w", layout.Root, err)
	}

	client := api.NewClient(
		api.WithAttempts(cfg.DownloadAttempts),
		api.WithRetryDelay(cfg.RetryDelay),
		api.WithTimeout(cfg.HttpTimeout),
		api.WithManifestUrl(cfg.ManifestUrl),
	)

	installed, err := fileutils.LoadInstalled(layout)
	if err != nil {
		return nil, err
	}

	l := &Launcher{
		Config:    cfg,
		Client:    client,
		Layout:    layout,
		Versions:  NewVersionResolver(client, layout),
		Libraries: NewLibraryResolver(client, layout, cfg.LibraryRepository),
		Natives:   NewNativeExtractor(client, layout, cfg.NativesMarker),
		Assets:    NewAssetSync(client, layout, cfg.ResourcesUrl, cfg.Concurrency),
		Installed: installed,
		Tweaker:   OptiFineTweaker,
	}
	l.Installer = NewInstaller(client, layout, l.Versions, l.Libraries, l.Natives, l.Assets, installed)
	return l, nil
}

func (l *Launcher) Install(id string, progress ProgressFunc) error {
	return l.Installer.Install(id, progress)
}

// Options fills in the launch options the caller left unset from the
// configuration.
func (l *Launcher) Options(opts LaunchOptions) LaunchOptions {
	if opts.RamMb <= 0 {
		opts.RamMb = l.Config.RamMb
	}
	if opts.JavaPath == "" {
		opts.JavaPath = l.Config.JavaPath
	}
	if opts.Width <= 0 {
		opts.Width = l.Config.WindowWidth
	}
	if opts.Height <= 0 {
		opts.Height = l.Config.WindowHeight
	}
	if opts.LauncherName == "" {
		opts.LauncherName = l.Config.LauncherName
	}
	if opts.LauncherVersion == "" {
		opts.LauncherVersion = l.Config.LauncherVersion
	}
	return opts
}

// Plan resolves the version and its classpath and builds the launch plan
// without starting anything. Libraries that cannot be located are left off
// the classpath.
func (l *Launcher) Plan(opts LaunchOptions) (LaunchOptions, []string, error) {
	opts = l.Options(opts)

	config, err := l.Versions.Resolve(opts.VersionId)
	if err != nil {
		return opts, nil, err
	}

	classpath, omitted, err := l.Libraries.ResolveAll(config.Libraries, false)
	if err != nil {
		return opts, nil, err
	}
	for _, o := range omitted {
		pterm.Debug.Printfln("Left %s off the classpath: %v", o.Library, o.Err)
	}

	if err := ensureClientJar(l.Client, l.Layout, config); err != nil {
		return opts, nil, err
	}
	classpath = append(classpath, l.Layout.ClientJar(config.JarId()))

	if err := os.MkdirAll(l.Layout.NativesDir(opts.VersionId), 0755); err != nil {
		return opts, nil, err
	}

	builder := PlanBuilder{Layout: l.Layout, Tweaker: l.Tweaker}
	plan := builder.Build(config, classpath, opts)
	return opts, plan.Command(), nil
}

// BuildAndLaunch starts the game and blocks until it exits. Output lines
// go to the sinks; a nonzero exit comes back as *util.GameExitError.
func (l *Launcher) BuildAndLaunch(opts LaunchOptions, stdout LineSink, stderr LineSink) error {
	opts, argv, err := l.Plan(opts)
	if err != nil {
		return err
	}
	pterm.Debug.Println("Launching " + opts.VersionId)
	return RunProcess(argv, l.Layout.Root, stdout, stderr)
}
