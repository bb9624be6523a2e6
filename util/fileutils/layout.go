package fileutils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Layout is the on-disk structure below a game root.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Layout{Root: root}
}

func (l Layout) VersionsDir() string {
	return filepath.Join(l.Root, "versions")
}

func (l Layout) VersionDir(id string) string {
	return filepath.Join(l.VersionsDir(), id)
}

func (l Layout) VersionJson(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

func (l Layout) ClientJar(id string) string {
	return filepath.Join(l.VersionDir(id), id+".jar")
}

func (l Layout) NativesDir(id string) string {
	return filepath.Join(l.VersionDir(id), id+"-natives")
}

func (l Layout) LibrariesDir() string {
	return filepath.Join(l.Root, "libraries")
}

func (l Layout) AssetsDir() string {
	return filepath.Join(l.Root, "assets")
}

func (l Layout) AssetIndex(id string) string {
	return filepath.Join(l.AssetsDir(), "indexes", id+".json")
}

// ObjectPath is the content-addressed location of an asset object.
func (l Layout) ObjectPath(hash string) string {
	return filepath.Join(l.AssetsDir(), filepath.FromSlash(ObjectKey(hash)))
}

// LegacyAssetPath is where the client reads an asset by its logical path.
func (l Layout) LegacyAssetPath(logicalPath string) (string, error) {
	return secureJoin(l.AssetsDir(), logicalPath)
}

// Library joins a slash separated relative path below the libraries root.
func (l Layout) Library(rel string) (string, error) {
	return secureJoin(l.LibrariesDir(), rel)
}

func (l Layout) LockFile(id string) string {
	return filepath.Join(l.Root, ".locks", id+".lock")
}

func (l Layout) StateFile() string {
	return filepath.Join(l.Root, "yagua.json")
}

func (l Layout) ProfilesFile() string {
	return filepath.Join(l.Root, "profiles.json")
}

// ObjectKey is "objects/<first two hash chars>/<hash>". A hash shorter than
// two chars has no prefix directory.
func ObjectKey(hash string) string {
	if len(hash) < 2 {
		return "objects/" + hash
	}
	return "objects/" + hash[:2] + "/" + hash
}

func secureJoin(root, rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("path %q contains '..', which is illegal", rel)
		}
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" {
		return "", fmt.Errorf("empty path below %s", root)
	}
	return securejoin.SecureJoin(root, rel)
}
