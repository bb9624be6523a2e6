package util

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibraryAllowed(t *testing.T) {
	osRule := func(action, name string) Rule {
		r := Rule{Action: action}
		if name != "" {
			r.Os = &OsRule{Name: name}
		}
		return r
	}

	assert.True(t, Library{}.Allowed("linux"))

	macOnly := Library{Rules: []Rule{osRule("allow", "osx")}}
	assert.True(t, macOnly.Allowed("osx"))
	assert.False(t, macOnly.Allowed("windows"))

	notMac := Library{Rules: []Rule{osRule("allow", ""), osRule("disallow", "osx")}}
	assert.True(t, notMac.Allowed("linux"))
	assert.False(t, notMac.Allowed("osx"))
}

func TestLibraryKinds(t *testing.T) {
	native := Library{Name: "org.lwjgl:lwjgl-platform:2.9.4", Downloads: &LibraryDownloads{
		Classifiers: map[string]Artifact{"natives-windows": {Url: "http://x/n.jar"}},
	}}
	assert.True(t, native.NativeOnly())
	assert.False(t, native.HasArtifact())

	direct := Library{Downloads: &LibraryDownloads{Artifact: &Artifact{Url: "http://x/a.jar"}}}
	assert.True(t, direct.HasArtifact())
	assert.False(t, direct.NativeOnly())
	assert.Equal(t, "http://x/a.jar", direct.String())
}

func TestAssetIndexId(t *testing.T) {
	assert.Equal(t, "legacy", (&VersionConfig{}).AssetIndexId())
	assert.Equal(t, "1.8", (&VersionConfig{Assets: "1.8"}).AssetIndexId())
	assert.Equal(t, "5", (&VersionConfig{Assets: "1.8", AssetIndex: &AssetIndexInfo{Id: "5"}}).AssetIndexId())
}

func TestLaunchPlanCommand(t *testing.T) {
	plan := LaunchPlan{
		Java:       "/usr/bin/java",
		HeapMb:     2048,
		NativesDir: "/mc/versions/1.8.9/1.8.9-natives",
		Classpath:  []string{"/mc/libraries/a.jar", "/mc/versions/1.8.9/1.8.9.jar"},
		MainClass:  "net.minecraft.client.main.Main",
		Args:       []string{"--username", "Steve"},
	}

	sep := string(os.PathListSeparator)
	assert.Equal(t, []string{
		"/usr/bin/java",
		"-Xmx2048M",
		"-Djava.library.path=/mc/versions/1.8.9/1.8.9-natives",
		"-Dorg.lwjgl.librarypath=/mc/versions/1.8.9/1.8.9-natives",
		"-cp",
		"/mc/libraries/a.jar" + sep + "/mc/versions/1.8.9/1.8.9.jar",
		"net.minecraft.client.main.Main",
		"--username", "Steve",
	}, plan.Command())
}

func TestGameExitError(t *testing.T) {
	inner := errors.New("exit status 3")
	err := error(&GameExitError{Code: 3, Err: inner})

	var exit *GameExitError
	assert.True(t, errors.As(err, &exit))
	assert.Equal(t, 3, exit.Code)
	assert.ErrorIs(t, err, inner)
}
