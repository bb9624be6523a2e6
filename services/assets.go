package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mrnavastar/yagua/api"
	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// AssetSync keeps the content-addressed asset store and the legacy
// logical-path tree in step with an asset index.
type AssetSync struct {
	client       *api.Client
	layout       fileutils.Layout
	resourcesUrl string
	concurrency  int
}

func NewAssetSync(client *api.Client, layout fileutils.Layout, resourcesUrl string, concurrency int) *AssetSync {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AssetSync{client: client, layout: layout, resourcesUrl: resourcesUrl, concurrency: concurrency}
}

// ParseIndex decodes the objects of an asset index document.
func ParseIndex(data []byte) (util.AssetIndex, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("asset index is not valid json")
	}
	objects := gjson.GetBytes(data, "objects")
	if !objects.IsObject() {
		return nil, errors.New("asset index has no objects")
	}

	index := util.AssetIndex{}
	var bad error
	objects.ForEach(func(key, value gjson.Result) bool {
		hash := value.Get("hash").String()
		if !validHash(hash) {
			bad = fmt.Errorf("asset %s has invalid hash %q", key.String(), hash)
			return false
		}
		index[key.String()] = hash
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return index, nil
}

func validHash(hash string) bool {
	if len(hash) != 40 {
		return false
	}
	for _, c := range hash {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// FetchIndex downloads the index, checks it against sha1 when one is
// declared, keeps a copy under indexes/<indexId>.json and decodes it.
// Without network the kept copy is used.
func (a *AssetSync) FetchIndex(url string, indexId string, sha1 string) (util.AssetIndex, error) {
	stored := a.layout.AssetIndex(indexId)
	data, err := a.client.GetBytes(url)
	if err != nil {
		if errors.Is(err, util.ErrNetwork) && fileutils.Verified(stored, sha1) {
			pterm.Warning.Printfln("Using stored asset index %s: %v", indexId, err)
			return a.LoadIndex(indexId)
		}
		return nil, err
	}

	if sum := fileutils.HashBytes(data); sha1 != "" && !strings.EqualFold(sum, sha1) {
		return nil, fmt.Errorf("%w: asset index %s: expected sha1 %s, got %s", util.ErrIntegrity, indexId, sha1, sum)
	}
	index, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("asset index %s: %w", indexId, err)
	}
	if err := fileutils.AtomicWriteFile(stored, bytes.NewReader(data), 0644); err != nil {
		return nil, err
	}
	return index, nil
}

func (a *AssetSync) LoadIndex(indexId string) (util.AssetIndex, error) {
	data, err := os.ReadFile(a.layout.AssetIndex(indexId))
	if err != nil {
		return nil, err
	}
	index, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("asset index %s: %w", indexId, err)
	}
	return index, nil
}

// SyncAsset makes sure the object for hash is stored and copied to its
// logical path.
func (a *AssetSync) SyncAsset(logicalPath string, hash string) error {
	if err := a.syncObject(hash); err != nil {
		return fmt.Errorf("asset %s: %w", logicalPath, err)
	}
	return a.mirror(logicalPath, hash)
}

func (a *AssetSync) syncObject(hash string) error {
	if !validHash(hash) {
		return fmt.Errorf("%w: invalid hash %q", util.ErrIntegrity, hash)
	}
	object := a.layout.ObjectPath(hash)
	if fileutils.Verified(object, hash) {
		return nil
	}
	return a.client.FetchVerified(a.resourcesUrl+hash[:2]+"/"+hash, object, hash)
}

// mirror copies, never moves, the object so other logical paths with the
// same hash keep using it.
func (a *AssetSync) mirror(logicalPath string, hash string) error {
	dest, err := a.layout.LegacyAssetPath(logicalPath)
	if err != nil {
		return err
	}
	if fileutils.Verified(dest, hash) {
		return nil
	}
	return fileutils.CopyFile(a.layout.ObjectPath(hash), dest)
}

// SyncAll syncs every asset of the index. Objects are fetched once per
// distinct hash, by up to concurrency workers; progress is called with the
// number of logical paths done so far.
func (a *AssetSync) SyncAll(index util.AssetIndex, progress func(done int, total int)) error {
	byHash := map[string][]string{}
	for logicalPath, hash := range index {
		byHash[hash] = append(byHash[hash], logicalPath)
	}
	hashes := make([]string, 0, len(byHash))
	for hash := range byHash {
		hashes = append(hashes, hash)
		sort.Strings(byHash[hash])
	}
	sort.Strings(hashes)

	var mu sync.Mutex
	done, total := 0, len(index)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(a.concurrency)
	for _, hash := range hashes {
		hash, paths := hash, byHash[hash]
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			for _, logicalPath := range paths {
				if err := a.SyncAsset(logicalPath, hash); err != nil {
					return err
				}
				mu.Lock()
				done++
				if progress != nil {
					progress(done, total)
				}
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}
