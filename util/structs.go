package util

import (
	"os"
	"strconv"
	"strings"
)

// VersionDescriptor is one entry of the remote version catalog.
type VersionDescriptor struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	Url         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
}

type Artifact struct {
	Url  string `json:"url"`
	Sha1 string `json:"sha1"`
}

type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

type OsRule struct {
	Name string `json:"name"`
}

type Rule struct {
	Action string  `json:"action"`
	Os     *OsRule `json:"os,omitempty"`
}

// Library is either addressed by a direct artifact url or by a maven
// coordinate in Name, optionally with a repository override in Url.
type Library struct {
	Name      string            `json:"name,omitempty"`
	Url       string            `json:"url,omitempty"`
	Sha1      string            `json:"sha1,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
}

func (l Library) HasArtifact() bool {
	return l.Downloads != nil && l.Downloads.Artifact != nil && l.Downloads.Artifact.Url != ""
}

func (l Library) HasClassifiers() bool {
	return l.Downloads != nil && len(l.Downloads.Classifiers) > 0
}

// NativeOnly reports whether the entry only carries platform bundles.
func (l Library) NativeOnly() bool {
	return l.HasClassifiers() && !l.HasArtifact()
}

// Allowed evaluates the library rules for the given os name. The last
// matching rule wins; no rules means allowed.
func (l Library) Allowed(osName string) bool {
	if len(l.Rules) == 0 {
		return true
	}
	allowed := false
	for _, rule := range l.Rules {
		if rule.Os != nil && rule.Os.Name != osName {
			continue
		}
		allowed = rule.Action == "allow"
	}
	return allowed
}

func (l Library) String() string {
	if l.Name != "" {
		return l.Name
	}
	if l.HasArtifact() {
		return l.Downloads.Artifact.Url
	}
	return "<unnamed library>"
}

type AssetIndexInfo struct {
	Id   string `json:"id"`
	Url  string `json:"url"`
	Sha1 string `json:"sha1"`
}

type VersionDownloads struct {
	Client *Artifact `json:"client,omitempty"`
}

// VersionConfig is a per-version descriptor. After inheritance is resolved
// the inherited fields hold the effective values.
type VersionConfig struct {
	Id                 string           `json:"id"`
	InheritsFrom       string           `json:"inheritsFrom,omitempty"`
	Type               string           `json:"type,omitempty"`
	MainClass          string           `json:"mainClass,omitempty"`
	Assets             string           `json:"assets,omitempty"`
	AssetIndex         *AssetIndexInfo  `json:"assetIndex,omitempty"`
	Libraries          []Library        `json:"libraries,omitempty"`
	Downloads          VersionDownloads `json:"downloads,omitempty"`
	MinecraftArguments string           `json:"minecraftArguments,omitempty"`
	Jar                string           `json:"jar,omitempty"`
}

// AssetIndexId returns the index id the client should be told about.
func (v *VersionConfig) AssetIndexId() string {
	if v.AssetIndex != nil && v.AssetIndex.Id != "" {
		return v.AssetIndex.Id
	}
	if v.Assets != "" {
		return v.Assets
	}
	return "legacy"
}

// JarId is the version whose directory holds the client jar.
func (v *VersionConfig) JarId() string {
	if v.Jar != "" {
		return v.Jar
	}
	return v.Id
}

// AssetIndex maps logical asset paths to content hashes.
type AssetIndex map[string]string

type Session struct {
	Username string `json:"username"`
	Uuid     string `json:"uuid"`
}

// AccessToken is the uuid for offline sessions.
func (s Session) AccessToken() string {
	return s.Uuid
}

type Profile struct {
	Name      string `json:"name"`
	VersionId string `json:"versionId"`
	RamMb     int    `json:"ramMb"`
}

// LaunchPlan is everything needed to start the client once.
type LaunchPlan struct {
	Java       string
	HeapMb     int
	NativesDir string
	Classpath  []string
	MainClass  string
	Args       []string
	WorkDir    string
}

func (p LaunchPlan) Command() []string {
	cmd := []string{
		p.Java,
		"-Xmx" + strconv.Itoa(p.HeapMb) + "M",
		"-Djava.library.path=" + p.NativesDir,
		"-Dorg.lwjgl.librarypath=" + p.NativesDir,
		"-cp",
		strings.Join(p.Classpath, string(os.PathListSeparator)),
		p.MainClass,
	}
	return append(cmd, p.Args...)
}
