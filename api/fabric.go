package api

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
	"golang.org/x/mod/semver"
)

// LoaderMeta describes a loader metadata service that publishes launcher
// profiles inheriting from a vanilla version.
type LoaderMeta struct {
	Name    string
	BaseUrl string
	// HasStableFlag is false when the service does not mark stable builds
	// and pre-release versions must be recognised by their name.
	HasStableFlag bool
}

var Fabric = LoaderMeta{
	Name:          "fabric",
	BaseUrl:       "https://meta.fabricmc.net/v2",
	HasStableFlag: true,
}

type LoaderVersion struct {
	Version string
	Stable  bool
}

func (l LoaderMeta) isStable(v LoaderVersion) bool {
	if l.HasStableFlag {
		return v.Stable
	}
	sv := "v" + v.Version
	return semver.IsValid(sv) && semver.Prerelease(sv) == ""
}

func (c *Client) GetLatestLoaderVersion(meta LoaderMeta) (string, error) {
	var loaderVersions []LoaderVersion
	if err := c.GetJson(meta.BaseUrl+"/versions/loader", &loaderVersions); err != nil {
		return "", err
	}

	for _, loaderVersion := range loaderVersions {
		if meta.isStable(loaderVersion) {
			return loaderVersion.Version, nil
		}
	}
	return "", errors.New("failed to find a stable version")
}

// InstallLoaderProfile writes the loader's launcher profile for the given
// game and loader versions into the versions directory and returns its id.
// An existing profile is left untouched.
func (c *Client) InstallLoaderProfile(layout fileutils.Layout, meta LoaderMeta, gameVersion string, loaderVersion string) (string, error) {
	body, err := c.GetBytes(meta.BaseUrl + "/versions/loader/" + gameVersion + "/" + loaderVersion + "/profile/json")
	if err != nil {
		return "", err
	}

	profileName, err := jsonparser.GetString(body, "id")
	if err != nil || profileName == "" {
		profileName = meta.Name + "-loader-" + loaderVersion + "-" + gameVersion
		if body, err = jsonparser.Set(body, []byte(`"`+profileName+`"`), "id"); err != nil {
			return "", err
		}
	}
	if parent, _ := jsonparser.GetString(body, "inheritsFrom"); parent == "" {
		return "", fmt.Errorf("%s profile %s does not inherit from a game version", meta.Name, profileName)
	}

	if fileutils.Exists(layout.VersionJson(profileName)) {
		pterm.Info.Println("Profile " + profileName + " already installed")
		return profileName, nil
	}

	if err := fileutils.AtomicWriteFile(layout.VersionJson(profileName), bytes.NewReader(body), 0644); err != nil {
		return "", err
	}
	return profileName, nil
}
