package services

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureConfig(f *gameFixture) *config.Config {
	return &config.Config{
		GameRoot:          f.layout.Root,
		JavaPath:          "java",
		RamMb:             1024,
		ManifestUrl:       f.srv.URL + "/mc/version_manifest.json",
		ResourcesUrl:      f.srv.URL + "/resources/",
		LibraryRepository: f.srv.URL + "/maven/",
		DownloadAttempts:  2,
		RetryDelay:        time.Millisecond,
		HttpTimeout:       5 * time.Second,
		NativesMarker:     testMarker,
		Concurrency:       2,
		WindowWidth:       854,
		WindowHeight:      480,
		LauncherName:      "YaguaLauncher",
		LauncherVersion:   "1.0",
	}
}

func TestLauncherPlan(t *testing.T) {
	f := newGameFixture(t)
	l, err := New(fixtureConfig(f))
	require.NoError(t, err)
	require.NoError(t, l.Install("1.0", nil))
	assert.True(t, l.Installed.Contains("1.0"))

	opts, argv, err := l.Plan(LaunchOptions{Session: util.Session{Username: "Steve", Uuid: "u"}, VersionId: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, 1024, opts.RamMb)
	assert.Equal(t, 854, opts.Width)

	assert.Equal(t, "java", argv[0])
	assert.Equal(t, "-Xmx1024M", argv[1])
	classpath := filepath.SplitList(argv[5])
	require.Len(t, classpath, 2)
	assert.Equal(t, l.Layout.ClientJar("1.0"), classpath[1])
	assert.Equal(t, "net.minecraft.client.main.Main", argv[6])
	assert.Contains(t, argv, "Steve")
}

func TestBuildAndLaunch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	f := newGameFixture(t)
	cfg := fixtureConfig(f)

	java := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(java, []byte("#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done\necho oops >&2\nexit 7\n"), 0755))
	cfg.JavaPath = java

	l, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, l.Install("1.0", nil))

	var out, errs lines
	err = l.BuildAndLaunch(LaunchOptions{Session: util.Session{Username: "Steve", Uuid: "u"}, VersionId: "1.0"}, out.sink, errs.sink)
	var exitErr *util.GameExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 7, exitErr.Code)
	assert.Contains(t, out.got, "net.minecraft.client.main.Main")
	assert.Contains(t, out.got, "--width")
	assert.Equal(t, []string{"oops"}, errs.got)
}

func TestLaunchUnknownVersion(t *testing.T) {
	f := newGameFixture(t)
	l, err := New(fixtureConfig(f))
	require.NoError(t, err)

	err = l.BuildAndLaunch(LaunchOptions{VersionId: "nope"}, nil, nil)
	assert.ErrorIs(t, err, util.ErrVersionNotFound)
}
