package api

import (
	"encoding/json"
	"fmt"

	"github.com/mrnavastar/yagua/util"
)

type Catalog struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []util.VersionDescriptor `json:"versions"`
}

// Find returns the catalog entry for id.
func (c *Catalog) Find(id string) (util.VersionDescriptor, bool) {
	for _, v := range c.Versions {
		if v.Id == id {
			return v, true
		}
	}
	return util.VersionDescriptor{}, false
}

func (c *Client) FetchCatalog() (*Catalog, error) {
	var catalog Catalog
	if err := c.GetJson(c.manifestUrl, &catalog); err != nil {
		return nil, fmt.Errorf("fetching version catalog: %w", err)
	}
	return &catalog, nil
}

// FetchVersionConfig downloads a per-version descriptor and returns it
// together with the raw document.
func (c *Client) FetchVersionConfig(url string) (*util.VersionConfig, []byte, error) {
	data, err := c.GetBytes(url)
	if err != nil {
		return nil, nil, err
	}
	var config util.VersionConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, nil, fmt.Errorf("decoding version descriptor %s: %w", url, err)
	}
	return &config, data, nil
}
