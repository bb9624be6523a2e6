package api

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
	"github.com/pterm/pterm"
	"github.com/sethvargo/go-retry"
)

// Fetch downloads url into dest in one attempt, hashing the body as it is
// written. A mismatch against expectedHash removes dest. An empty
// expectedHash skips verification.
func (c *Client) Fetch(url string, dest string, expectedHash string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	resp, err := c.http.R().SetDoNotParseResponse(true).Get(url)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", util.ErrNetwork, url, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: GET %s: HTTP %d", util.ErrNetwork, url, resp.StatusCode())
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	hasher := sha1.New()
	counter := &fileutils.WriteCounter{Total: resp.RawResponse.ContentLength}
	_, err = io.Copy(io.MultiWriter(file, hasher, counter), resp.RawBody())
	closeErr := file.Close()
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: reading %s: %v", util.ErrNetwork, url, err)
	}
	if closeErr != nil {
		os.Remove(dest)
		return closeErr
	}
	if !counter.Complete() {
		os.Remove(dest)
		return fmt.Errorf("%w: reading %s: got %d of %d bytes", util.ErrNetwork, url, counter.Size, counter.Total)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if expectedHash != "" && !strings.EqualFold(sum, expectedHash) {
		os.Remove(dest)
		return fmt.Errorf("%w: %s: expected sha1 %s, got %s", util.ErrIntegrity, url, expectedHash, sum)
	}

	pterm.Debug.Printfln("Fetched %s (%d of %d bytes)", url, counter.Size, counter.Total)
	return nil
}

// FetchVerified retries Fetch into a ".part" sibling of dest and only moves
// it over dest once the hash matched, so dest is never partially written.
func (c *Client) FetchVerified(url string, dest string, expectedHash string) error {
	tmp := dest + ".part"
	delay := c.retryDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(c.attempts-1), retry.NewConstant(delay))

	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++
		err := c.Fetch(url, tmp, expectedHash)
		if err == nil {
			return nil
		}
		os.Remove(tmp)
		if errors.Is(err, util.ErrNetwork) || errors.Is(err, util.ErrIntegrity) {
			pterm.Debug.Printfln("Attempt %d/%d for %s failed: %v", attempt, c.attempts, url, err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// GetBytes returns the body of a successful GET.
func (c *Client) GetBytes(url string) ([]byte, error) {
	resp, err := c.http.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", util.ErrNetwork, url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", util.ErrNetwork, url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// GetJson decodes the body of a successful GET into result.
func (c *Client) GetJson(url string, result interface{}) error {
	resp, err := c.http.R().ForceContentType("application/json").SetResult(result).Get(url)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", util.ErrNetwork, url, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: GET %s: HTTP %d", util.ErrNetwork, url, resp.StatusCode())
	}
	return nil
}
