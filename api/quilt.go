package api

var Quilt = LoaderMeta{
	Name:    "quilt",
	BaseUrl: "https://meta.quiltmc.org/v3",
}

// Loaders lists the supported loader services by name.
var Loaders = map[string]LoaderMeta{
	Fabric.Name: Fabric,
	Quilt.Name:  Quilt,
}

// IsLoaderGameVersionSupported reports whether the loader publishes builds
// for the game version.
func (c *Client) IsLoaderGameVersionSupported(meta LoaderMeta, version string) (bool, error) {
	var versions []Version
	if err := c.GetJson(meta.BaseUrl+"/versions/game", &versions); err != nil {
		return false, err
	}

	for _, v := range versions {
		if v.Version == version {
			return true, nil
		}
	}
	return false, nil
}
