package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
)

// NativeExtractor unpacks the platform classifier bundles of a version's
// libraries into one flat directory.
type NativeExtractor struct {
	client *api.Client
	layout fileutils.Layout
	marker string
	osName string
}

func NewNativeExtractor(client *api.Client, layout fileutils.Layout, marker string) *NativeExtractor {
	return &NativeExtractor{client: client, layout: layout, marker: strings.ToLower(marker), osName: util.OsName()}
}

// markerAliases names the other spelling descriptors use for the same
// platform.
var markerAliases = map[string]string{
	"natives-osx":   "natives-macos",
	"natives-macos": "natives-osx",
}

// SelectClassifier picks the classifier of lib matching marker: an exact
// name first, otherwise the lexically first name containing it. When
// nothing matches, the alias of marker is tried the same way.
func SelectClassifier(lib util.Library, marker string) (string, util.Artifact, bool) {
	if !lib.HasClassifiers() || marker == "" {
		return "", util.Artifact{}, false
	}
	marker = strings.ToLower(marker)
	if name, ok := matchClassifier(lib, marker); ok {
		return name, lib.Downloads.Classifiers[name], true
	}
	if alias, ok := markerAliases[marker]; ok {
		if name, ok := matchClassifier(lib, alias); ok {
			return name, lib.Downloads.Classifiers[name], true
		}
	}
	return "", util.Artifact{}, false
}

func matchClassifier(lib util.Library, marker string) (string, bool) {
	var names []string
	for name := range lib.Downloads.Classifiers {
		lower := strings.ToLower(name)
		if lower == marker {
			return name, true
		}
		if strings.Contains(lower, marker) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

func skipMetadata(name string) bool {
	return strings.HasPrefix(name, "META-INF/")
}

// Extract empties dir and fills it from every matching bundle in library
// order, later bundles overwriting earlier same-named files. It returns the
// number of files written.
func (n *NativeExtractor) Extract(libs []util.Library, dir string) (int, error) {
	if err := fileutils.ClearDir(dir); err != nil {
		return 0, err
	}

	written := 0
	for _, lib := range libs {
		if !lib.Allowed(n.osName) {
			continue
		}
		classifier, artifact, ok := SelectClassifier(lib, n.marker)
		if !ok {
			continue
		}

		rel, err := UrlLibraryPath(artifact.Url)
		if err != nil {
			return written, fmt.Errorf("natives %s of %s: %w", classifier, lib, err)
		}
		jar, err := n.layout.Library(rel)
		if err != nil {
			return written, err
		}
		if !fileutils.Verified(jar, artifact.Sha1) {
			pterm.Debug.Println("Downloading natives " + classifier + " of " + lib.String())
			if err := n.client.FetchVerified(artifact.Url, jar, artifact.Sha1); err != nil {
				return written, fmt.Errorf("natives %s of %s: %w", classifier, lib, err)
			}
		}

		names, err := fileutils.ExtractFlat(jar, dir, skipMetadata)
		written += len(names)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
