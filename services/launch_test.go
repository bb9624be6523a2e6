package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionType(t *testing.T) {
	assert.Equal(t, "snapshot", VersionType(&util.VersionConfig{Id: "23w10a"}))
	assert.Equal(t, "release", VersionType(&util.VersionConfig{Id: "1.20.1"}))
	assert.Equal(t, "old_beta", VersionType(&util.VersionConfig{Id: "b1.7.3", Type: "old_beta"}))
}

func TestSubstituteTemplate(t *testing.T) {
	tokens := SubstituteTemplate("--username ${auth_player_name} --uuid ${auth_uuid}", map[string]string{
		"auth_player_name": "Steve",
		"auth_uuid":        "abc-123",
	})
	assert.Equal(t, []string{"--username", "Steve", "--uuid", "abc-123"}, tokens)

	tokens = SubstituteTemplate("  --dir=${game_directory}/x   ${unknown} ", map[string]string{"game_directory": "/g"})
	assert.Equal(t, []string{"--dir=/g/x", "${unknown}"}, tokens)
}

func TestReconcile(t *testing.T) {
	rule := OptiFineTweaker

	t.Run("bridge without tweaker gets the fallback", func(t *testing.T) {
		main, args := rule.Reconcile(rule.BridgeMain, []string{"--username", "Steve"}, false)
		assert.Equal(t, rule.BridgeMain, main)
		assert.Equal(t, []string{"--username", "Steve", "--tweakClass", rule.FallbackTweaker}, args)
	})

	t.Run("loader present replaces the fallback", func(t *testing.T) {
		main, args := rule.Reconcile(rule.BridgeMain, []string{"--tweakClass", rule.FallbackTweaker, "--demo"}, true)
		assert.Equal(t, rule.BridgeMain, main)
		assert.Equal(t, []string{"--demo", "--tweakClass", rule.LoaderTweaker}, args)
	})

	t.Run("any tweaker forces the bridge main class", func(t *testing.T) {
		main, args := rule.Reconcile("net.minecraft.client.main.Main", []string{"--tweakClass", "some.Other"}, false)
		assert.Equal(t, rule.BridgeMain, main)
		assert.Equal(t, []string{"--tweakClass", "some.Other"}, args)
	})

	t.Run("plain clients are untouched", func(t *testing.T) {
		main, args := rule.Reconcile("net.minecraft.client.main.Main", []string{"--demo"}, true)
		assert.Equal(t, "net.minecraft.client.main.Main", main)
		assert.Equal(t, []string{"--demo"}, args)
	})
}

func TestLoaderPresent(t *testing.T) {
	layout := fileutils.NewLayout(t.TempDir())
	assert.False(t, OptiFineTweaker.LoaderPresent(layout))

	dir := filepath.Join(layout.LibrariesDir(), "optifine", "OptiFine", "1.12.2_HD_U_G5")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OptiFine-1.12.2_HD_U_G5.jar"), []byte("jar"), 0644))
	assert.True(t, OptiFineTweaker.LoaderPresent(layout))
}

func testOptions() LaunchOptions {
	return LaunchOptions{
		Session:         util.Session{Username: "Steve", Uuid: "u"},
		VersionId:       "1.20.1",
		RamMb:           2048,
		JavaPath:        "/usr/bin/java",
		Width:           854,
		Height:          480,
		LauncherName:    "YaguaLauncher",
		LauncherVersion: "1.0",
	}
}

func TestBuildModern(t *testing.T) {
	layout := fileutils.NewLayout(t.TempDir())
	b := PlanBuilder{Layout: layout, Tweaker: OptiFineTweaker}
	config := &util.VersionConfig{Id: "1.20.1", MainClass: "net.minecraft.client.main.Main", AssetIndex: &util.AssetIndexInfo{Id: "5"}}

	plan := b.Build(config, []string{"/l/a.jar", "/v/client.jar"}, testOptions())
	assert.Equal(t, "/usr/bin/java", plan.Java)
	assert.Equal(t, "net.minecraft.client.main.Main", plan.MainClass)
	assert.Equal(t, layout.Root, plan.WorkDir)
	assert.Equal(t, layout.NativesDir("1.20.1"), plan.NativesDir)
	assert.Equal(t, []string{
		"--version", "1.20.1",
		"--versionType", "release",
		"--gameDir", layout.Root,
		"--assetsDir", layout.AssetsDir(),
		"--assetIndex", "5",
		"--uuid", "u",
		"--accessToken", "u",
		"--userProperties", "{}",
		"--userType", "legacy",
		"--username", "Steve",
		"--width", "854",
		"--height", "480",
	}, plan.Args)

	cmd := plan.Command()
	assert.Equal(t, "-Xmx2048M", cmd[1])
	assert.Equal(t, "-Djava.library.path="+plan.NativesDir, cmd[2])
	assert.Equal(t, "-Dorg.lwjgl.librarypath="+plan.NativesDir, cmd[3])
	assert.Equal(t, "/l/a.jar"+string(os.PathListSeparator)+"/v/client.jar", cmd[5])
}

func TestBuildLegacyWithServer(t *testing.T) {
	layout := fileutils.NewLayout(t.TempDir())
	b := PlanBuilder{Layout: layout, Tweaker: OptiFineTweaker}
	config := &util.VersionConfig{
		Id:                 "1.7.10",
		MainClass:          "net.minecraft.launchwrapper.Launch",
		Assets:             "1.7.10",
		MinecraftArguments: "--username ${auth_player_name} --session ${auth_access_token} --assetIndex ${assets_index_name} --userProperties ${user_properties}",
	}
	opts := testOptions()
	opts.VersionId = "1.7.10"
	opts.ServerHost = "play.example.com"

	plan := b.Build(config, nil, opts)
	assert.Equal(t, "net.minecraft.launchwrapper.Launch", plan.MainClass)
	assert.Equal(t, []string{
		"--username", "Steve",
		"--session", "u",
		"--assetIndex", "1.7.10",
		"--userProperties", "{}",
		"--tweakClass", "net.minecraft.launchwrapper.VanillaTweaker",
		"--server", "play.example.com", "--port", "25565",
		"--width", "854", "--height", "480",
	}, plan.Args)
}

func TestJavaExecutable(t *testing.T) {
	assert.Equal(t, "java", javaExecutable(""))
	assert.Equal(t, "/opt/java/bin/java", javaExecutable("/opt/java/bin/java"))

	home := t.TempDir()
	assert.Contains(t, javaExecutable(home), filepath.Join(home, "bin", "java"))
}
