package services

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/stretchr/testify/require"
)

const testMarker = "natives-test"

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// fileServer serves a fixed set of files and counts requests per path.
type fileServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newFileServer(t *testing.T) *fileServer {
	t.Helper()
	fs := &fileServer{files: map[string][]byte{}, hits: map[string]int{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		data, ok := fs.files[r.URL.Path]
		fs.hits[r.URL.Path]++
		fs.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) put(path string, data []byte) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = data
	return fs.URL + path
}

func (fs *fileServer) remove(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, path)
}

func (fs *fileServer) hitsFor(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}

// downloads counts requests for everything except metadata documents.
func (fs *fileServer) downloads() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for path, c := range fs.hits {
		if strings.HasSuffix(path, ".json") {
			continue
		}
		n += c
	}
	return n
}

func (fs *fileServer) client() *api.Client {
	return api.NewClient(
		api.WithRetryDelay(time.Millisecond),
		api.WithManifestUrl(fs.URL+"/mc/version_manifest.json"),
	)
}

// gameFixture publishes a small but complete release "1.0".
type gameFixture struct {
	srv       *fileServer
	layout    fileutils.Layout
	libJar    []byte
	clientJar []byte
	natives   []byte
	indexSha1 string
	objects   map[string][]byte
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	f := &gameFixture{
		srv:       newFileServer(t),
		layout:    fileutils.NewLayout(t.TempDir()),
		libJar:    []byte("library jar"),
		clientJar: []byte("client jar"),
		objects:   map[string][]byte{},
	}
	f.natives = zipBytes(t, map[string]string{
		"liblwjgl.so":          "native",
		"META-INF/MANIFEST.MF": "skip me",
	})
	require.NoError(t, fileutils.Setup(f.layout))

	icon := []byte("icon")
	sound := []byte("sound")
	f.objects[sha1Hex(icon)] = icon
	f.objects[sha1Hex(sound)] = sound
	for hash, data := range f.objects {
		f.srv.put("/resources/"+hash[:2]+"/"+hash, data)
	}

	index := `{"objects":{
		"icons/icon_16x16.png":{"hash":"` + sha1Hex(icon) + `","size":4},
		"icons/icon_32x32.png":{"hash":"` + sha1Hex(icon) + `","size":4},
		"sounds/step.ogg":{"hash":"` + sha1Hex(sound) + `","size":5}}}`
	indexUrl := f.srv.put("/indexes/legacy.json", []byte(index))
	f.indexSha1 = sha1Hex([]byte(index))

	libUrl := f.srv.put("/libraries/org/lwjgl/lwjgl/2.9.4/lwjgl-2.9.4.jar", f.libJar)
	nativesUrl := f.srv.put("/libraries/org/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-test.jar", f.natives)
	clientUrl := f.srv.put("/versions/1.0/client.jar", f.clientJar)

	descriptor := `{
		"id": "1.0",
		"type": "release",
		"mainClass": "net.minecraft.client.main.Main",
		"assets": "legacy",
		"assetIndex": {"id": "legacy", "url": "` + indexUrl + `", "sha1": "` + f.indexSha1 + `"},
		"minecraftArguments": "--username ${auth_player_name} --version ${version_name} --gameDir ${game_directory} --assetsDir ${assets_root} --assetIndex ${assets_index_name} --uuid ${auth_uuid} --accessToken ${auth_access_token}",
		"downloads": {"client": {"url": "` + clientUrl + `", "sha1": "` + sha1Hex(f.clientJar) + `"}},
		"libraries": [
			{"name": "org.lwjgl:lwjgl:2.9.4", "downloads": {"artifact": {"url": "` + libUrl + `", "sha1": "` + sha1Hex(f.libJar) + `"}}},
			{"name": "org.lwjgl:lwjgl-platform:2.9.4", "downloads": {"classifiers": {"` + testMarker + `": {"url": "` + nativesUrl + `", "sha1": "` + sha1Hex(f.natives) + `"}}}}
		]
	}`
	versionUrl := f.srv.put("/mc/1.0.json", []byte(descriptor))
	f.srv.put("/mc/version_manifest.json", []byte(`{"latest":{"release":"1.0","snapshot":"1.0"},"versions":[{"id":"1.0","type":"release","url":"`+versionUrl+`"}]}`))
	return f
}

func (f *gameFixture) installer(t *testing.T) (*Installer, *fileutils.InstalledSet) {
	t.Helper()
	client := f.srv.client()
	installed, err := fileutils.LoadInstalled(f.layout)
	require.NoError(t, err)
	in := NewInstaller(client, f.layout,
		NewVersionResolver(client, f.layout),
		NewLibraryResolver(client, f.layout, f.srv.URL+"/maven/"),
		NewNativeExtractor(client, f.layout, testMarker),
		NewAssetSync(client, f.layout, f.srv.URL+"/resources/", 2),
		installed)
	return in, installed
}
