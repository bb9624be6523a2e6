package fileutils

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/yagua/util"
)

// Setup creates the top level directories of a game root.
func Setup(layout Layout) error {
	for _, dir := range []string{layout.VersionsDir(), layout.LibrariesDir(), filepath.Join(layout.AssetsDir(), "indexes"), filepath.Join(layout.AssetsDir(), "objects")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// WriteCounter counts bytes written through it. Total is the expected size,
// zero or less when unknown.
type WriteCounter struct {
	Total int64
	Size  int64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Size += int64(n)
	return n, nil
}

// Complete reports whether the expected size, if known, was written.
func (wc *WriteCounter) Complete() bool {
	return wc.Total <= 0 || wc.Size == wc.Total
}

func Exists(filepath string) bool {
	info, err := os.Stat(filepath)
	return err == nil && !info.IsDir()
}

func HashFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashBytes is the sha1 hex digest of data.
func HashBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Verified reports whether the file exists and hashes to expected. An empty
// expected hash only checks existence.
func Verified(filepath string, expected string) bool {
	if !Exists(filepath) {
		return false
	}
	if expected == "" {
		return true
	}
	sum, err := HashFile(filepath)
	return err == nil && strings.EqualFold(sum, expected)
}

func CopyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return AtomicWriteFile(dst, in, 0644)
}

// AtomicWriteFile writes to a temp file next to filename and renames it into
// place.
func AtomicWriteFile(filename string, reader io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(filepath.Split(filename))
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	if _, err := io.Copy(tempFile, reader); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return err
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return err
	}
	if err := os.Chmod(tempName, mode); err != nil {
		os.Remove(tempName)
		return err
	}
	return os.Rename(tempName, filename)
}

// ExtractFlat writes every regular entry of the archive into dir under its
// base name. Entries for which skip returns true are ignored. It returns the
// names written, in archive order.
func ExtractFlat(archive string, dir string, skip func(name string) bool) ([]string, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, file := range reader.File {
		name := strings.ReplaceAll(file.Name, "\\", "/")
		if file.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			continue
		}
		if skip != nil && skip(name) {
			continue
		}
		base := path.Base(name)
		if base == "." || base == ".." || base == "/" {
			continue
		}

		if err := extractEntry(file, filepath.Join(dir, base)); err != nil {
			return written, fmt.Errorf("extracting %s from %s: %w", name, filepath.Base(archive), err)
		}
		written = append(written, base)
	}
	return written, nil
}

func extractEntry(file *zip.File, dest string) error {
	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ClearDir removes dir and recreates it empty.
func ClearDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func readProfiles(layout Layout) ([]byte, error) {
	data, err := os.ReadFile(layout.ProfilesFile())
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		return []byte("{}"), nil
	}
	return data, err
}

func AddProfile(layout Layout, profile util.Profile) error {
	profiles, err := readProfiles(layout)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", " ")
	if err != nil {
		return err
	}

	newProfiles, err := jsonparser.Set(profiles, data, profile.Name)
	if err != nil {
		return err
	}
	return AtomicWriteFile(layout.ProfilesFile(), bytes.NewReader(newProfiles), 0644)
}

func RemoveProfile(layout Layout, name string) error {
	profiles, err := readProfiles(layout)
	if err != nil {
		return err
	}

	newProfiles := jsonparser.Delete(profiles, name)
	return AtomicWriteFile(layout.ProfilesFile(), bytes.NewReader(newProfiles), 0644)
}

func LoadProfiles(layout Layout) (map[string]util.Profile, error) {
	data, err := readProfiles(layout)
	if err != nil {
		return nil, err
	}
	profiles := map[string]util.Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
