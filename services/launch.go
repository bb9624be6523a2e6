package services

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
)

const tweakClassFlag = "--tweakClass"

var snapshotPattern = regexp.MustCompile(`^\d{2}w\d{2}[a-z]$`)

// VersionType is the explicit type if set, else guessed from the id.
func VersionType(config *util.VersionConfig) string {
	if config.Type != "" {
		return config.Type
	}
	if snapshotPattern.MatchString(config.Id) {
		return "snapshot"
	}
	return "release"
}

// TweakerRule describes a launch-wrapper ecosystem: the bridge main class,
// the loader specific tweaker detected through its library directory, and
// the vanilla compatible fallback.
type TweakerRule struct {
	BridgeMain      string
	LoaderTweaker   string
	LoaderLibrary   string
	FallbackTweaker string
}

var OptiFineTweaker = TweakerRule{
	BridgeMain:      "net.minecraft.launchwrapper.Launch",
	LoaderTweaker:   "optifine.OptiFineTweaker",
	LoaderLibrary:   "optifine/OptiFine",
	FallbackTweaker: "net.minecraft.launchwrapper.VanillaTweaker",
}

// LoaderPresent reports whether a jar exists below the rule's library
// directory.
func (t TweakerRule) LoaderPresent(layout fileutils.Layout) bool {
	dir, err := layout.Library(t.LoaderLibrary)
	if err != nil {
		return false
	}
	found := false
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".jar") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// Reconcile fixes up the tweaker arguments for mainClass and returns the
// new arguments and the effective main class.
func (t TweakerRule) Reconcile(mainClass string, args []string, loaderPresent bool) (string, []string) {
	if loaderPresent {
		args = stripPair(args, tweakClassFlag, t.FallbackTweaker)
	}
	if mainClass == t.BridgeMain && !hasFlag(args, tweakClassFlag) {
		if loaderPresent {
			args = append(args, tweakClassFlag, t.LoaderTweaker)
		} else {
			args = append(args, tweakClassFlag, t.FallbackTweaker)
		}
	}
	if hasFlag(args, tweakClassFlag) {
		mainClass = t.BridgeMain
	}
	return mainClass, args
}

func hasFlag(args []string, flag string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return true
		}
	}
	return false
}

func stripPair(args []string, flag string, value string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == flag && i+1 < len(args) && args[i+1] == value {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}

type LaunchOptions struct {
	Session         util.Session
	VersionId       string
	RamMb           int
	ServerHost      string
	ServerPort      int
	JavaPath        string
	Width           int
	Height          int
	LauncherName    string
	LauncherVersion string
}

// PlanBuilder turns a resolved configuration and its classpath into a
// LaunchPlan.
type PlanBuilder struct {
	Layout  fileutils.Layout
	Tweaker TweakerRule
}

// Placeholders returns the ${name} substitutions of legacy argument
// templates.
func (b PlanBuilder) Placeholders(config *util.VersionConfig, opts LaunchOptions) map[string]string {
	return map[string]string{
		"auth_player_name":  opts.Session.Username,
		"version_name":      opts.VersionId,
		"game_directory":    b.Layout.Root,
		"assets_root":       b.Layout.AssetsDir(),
		"assets_index_name": config.AssetIndexId(),
		"auth_uuid":         opts.Session.Uuid,
		"auth_access_token": opts.Session.AccessToken(),
		"user_type":         "legacy",
		"user_properties":   "{}",
		"natives_directory": b.Layout.NativesDir(opts.VersionId),
		"launcher_name":     opts.LauncherName,
		"launcher_version":  opts.LauncherVersion,
	}
}

// SubstituteTemplate splits a legacy template on whitespace and replaces
// the placeholders within each token.
func SubstituteTemplate(template string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "${"+name+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	tokens := strings.Fields(template)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = replacer.Replace(tok)
	}
	return out
}

func (b PlanBuilder) modernArgs(config *util.VersionConfig, opts LaunchOptions) []string {
	return []string{
		"--version", opts.VersionId,
		"--versionType", VersionType(config),
		"--gameDir", b.Layout.Root,
		"--assetsDir", b.Layout.AssetsDir(),
		"--assetIndex", config.AssetIndexId(),
		"--uuid", opts.Session.Uuid,
		"--accessToken", opts.Session.AccessToken(),
		"--userProperties", "{}",
		"--userType", "legacy",
		"--username", opts.Session.Username,
	}
}

// Build assembles the plan. The argument style follows the configuration:
// a legacy template when it has one, the fixed modern flags otherwise.
func (b PlanBuilder) Build(config *util.VersionConfig, classpath []string, opts LaunchOptions) util.LaunchPlan {
	var args []string
	if strings.TrimSpace(config.MinecraftArguments) != "" {
		args = SubstituteTemplate(config.MinecraftArguments, b.Placeholders(config, opts))
	} else {
		args = b.modernArgs(config, opts)
	}

	mainClass, args := b.Tweaker.Reconcile(config.MainClass, args, b.Tweaker.LoaderPresent(b.Layout))

	if opts.ServerHost != "" {
		port := opts.ServerPort
		if port == 0 {
			port = 25565
		}
		args = append(args, "--server", opts.ServerHost, "--port", strconv.Itoa(port))
	}
	args = append(args, "--width", strconv.Itoa(opts.Width), "--height", strconv.Itoa(opts.Height))

	return util.LaunchPlan{
		Java:       javaExecutable(opts.JavaPath),
		HeapMb:     opts.RamMb,
		NativesDir: b.Layout.NativesDir(opts.VersionId),
		Classpath:  classpath,
		MainClass:  mainClass,
		Args:       args,
		WorkDir:    b.Layout.Root,
	}
}

// javaExecutable accepts either a java binary or a JAVA_HOME style
// directory.
func javaExecutable(path string) string {
	if path == "" {
		return "java"
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	name := "java"
	if os.PathSeparator == '\\' {
		name = "java.exe"
	}
	return filepath.Join(path, "bin", name)
}
