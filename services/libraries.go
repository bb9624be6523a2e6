package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
)

// OmittedLibrary is a library left off the classpath and why.
type OmittedLibrary struct {
	Library util.Library
	Err     error
}

type LibraryResolver struct {
	client      *api.Client
	layout      fileutils.Layout
	defaultRepo string
	osName      string
}

func NewLibraryResolver(client *api.Client, layout fileutils.Layout, defaultRepo string) *LibraryResolver {
	return &LibraryResolver{
		client:      client,
		layout:      layout,
		defaultRepo: defaultRepo,
		osName:      util.OsName(),
	}
}

// MavenPath turns "group:artifact:version[:classifier]" into the repository
// relative jar path.
func MavenPath(coordinate string) (string, error) {
	if i := strings.Index(coordinate, "@"); i >= 0 {
		coordinate = coordinate[:i]
	}
	parts := strings.Split(coordinate, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", fmt.Errorf("invalid maven coordinate %q", coordinate)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid maven coordinate %q", coordinate)
		}
	}

	group, artifact, version := strings.ReplaceAll(parts[0], ".", "/"), parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	return group + "/" + artifact + "/" + version + "/" + file + ".jar", nil
}

// UrlLibraryPath is the libraries-relative path mirroring the url's path.
func UrlLibraryPath(rawUrl string) (string, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return "", fmt.Errorf("url %q has no path", rawUrl)
	}
	return p, nil
}

// Skipped reports whether a library never contributes a classpath entry on
// this platform.
func (r *LibraryResolver) Skipped(lib util.Library) bool {
	return lib.NativeOnly() || !lib.Allowed(r.osName)
}

// Resolve makes sure the library is on disk and returns its path.
func (r *LibraryResolver) Resolve(lib util.Library) (string, error) {
	if lib.HasArtifact() {
		return r.resolveUrl(lib.Downloads.Artifact.Url, lib.Downloads.Artifact.Sha1)
	}
	if lib.Name != "" {
		return r.resolveCoordinate(lib)
	}
	return "", fmt.Errorf("%w: %s has neither a download url nor a coordinate", util.ErrPartialLibrary, lib)
}

func (r *LibraryResolver) resolveUrl(rawUrl string, sha1 string) (string, error) {
	rel, err := UrlLibraryPath(rawUrl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrPartialLibrary, err)
	}
	dest, err := r.layout.Library(rel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrPartialLibrary, err)
	}
	if fileutils.Verified(dest, sha1) {
		return dest, nil
	}
	if err := r.client.FetchVerified(rawUrl, dest, sha1); err != nil {
		return "", err
	}
	return dest, nil
}

func (r *LibraryResolver) resolveCoordinate(lib util.Library) (string, error) {
	rel, err := MavenPath(lib.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrPartialLibrary, err)
	}
	dest, err := r.layout.Library(rel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrPartialLibrary, err)
	}
	if fileutils.Verified(dest, lib.Sha1) {
		return dest, nil
	}

	repo := lib.Url
	if repo == "" {
		repo = r.defaultRepo
	}
	if !strings.HasSuffix(repo, "/") {
		repo += "/"
	}
	full := repo + rel

	sha1 := lib.Sha1
	if sha1 == "" {
		sha1 = r.sidecarHash(full)
	}
	if sha1 == "" {
		pterm.Warning.Println("No checksum published for " + lib.Name + ", downloading unverified")
	}

	if err := r.client.FetchVerified(full, dest, sha1); err != nil {
		return "", fmt.Errorf("%w: %s from %s: %v", util.ErrPartialLibrary, lib.Name, repo, err)
	}
	return dest, nil
}

// sidecarHash reads the maven ".sha1" file published next to an artifact.
func (r *LibraryResolver) sidecarHash(artifactUrl string) string {
	data, err := r.client.GetBytes(artifactUrl + ".sha1")
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 || len(fields[0]) != 40 {
		return ""
	}
	return fields[0]
}

// ResolveAll resolves libs in order. Libraries that cannot be located are
// omitted and reported. In strict mode a declared-hash artifact that fails
// to download or verify aborts instead.
func (r *LibraryResolver) ResolveAll(libs []util.Library, strict bool) ([]string, []OmittedLibrary, error) {
	var paths []string
	var omitted []OmittedLibrary
	for _, lib := range libs {
		if r.Skipped(lib) {
			continue
		}
		path, err := r.Resolve(lib)
		if err == nil {
			paths = append(paths, path)
			continue
		}
		if strict && fatalLibraryError(lib, err) {
			return nil, omitted, fmt.Errorf("library %s: %w", lib, err)
		}
		pterm.Warning.Printfln("Omitting %s from the classpath: %v", lib, err)
		omitted = append(omitted, OmittedLibrary{Library: lib, Err: err})
	}
	return paths, omitted, nil
}

func fatalLibraryError(lib util.Library, err error) bool {
	if errors.Is(err, util.ErrPartialLibrary) {
		return false
	}
	return lib.HasArtifact() && lib.Downloads.Artifact.Sha1 != ""
}
