package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mrnavastar/yagua/util"
	"github.com/mrnavastar/yagua/util/fileutils"
)

var ErrProfileNotFound = errors.New("failed to find profile")

func CreateProfile(layout fileutils.Layout, profile util.Profile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" || strings.ContainsAny(profile.Name, ".[]\"\\") {
		return fmt.Errorf("invalid profile name %q", profile.Name)
	}
	if profile.VersionId == "" {
		return fmt.Errorf("profile %s has no version", profile.Name)
	}
	if profile.RamMb < 0 {
		return fmt.Errorf("profile %s has negative memory", profile.Name)
	}

	if _, err := GetProfile(layout, profile.Name); err == nil {
		return fmt.Errorf("profile %s already exists", profile.Name)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return err
	}
	return fileutils.AddProfile(layout, profile)
}

func GetProfile(layout fileutils.Layout, name string) (util.Profile, error) {
	profiles, err := fileutils.LoadProfiles(layout)
	if err != nil {
		return util.Profile{}, err
	}
	for key, profile := range profiles {
		if strings.EqualFold(key, name) {
			if profile.Name == "" {
				profile.Name = key
			}
			return profile, nil
		}
	}
	return util.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// ListProfiles returns every profile sorted by name.
func ListProfiles(layout fileutils.Layout) ([]util.Profile, error) {
	profiles, err := fileutils.LoadProfiles(layout)
	if err != nil {
		return nil, err
	}
	list := make([]util.Profile, 0, len(profiles))
	for key, profile := range profiles {
		if profile.Name == "" {
			profile.Name = key
		}
		list = append(list, profile)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func DeleteProfile(layout fileutils.Layout, name string) error {
	profile, err := GetProfile(layout, name)
	if err != nil {
		return err
	}
	if err := fileutils.RemoveProfile(layout, profile.Name); err != nil {
		return err
	}

	state, err := fileutils.LoadAppState(layout)
	if err != nil {
		return err
	}
	if strings.EqualFold(state.ActiveProfile, profile.Name) {
		return SetActiveProfile(layout, "")
	}
	return nil
}

func SetActiveProfile(layout fileutils.Layout, name string) error {
	state, err := fileutils.LoadAppState(layout)
	if err != nil {
		return err
	}
	state.ActiveProfile = name
	return fileutils.SaveAppState(layout, state)
}

// ActiveProfile returns the selected profile, if one is selected and still
// exists.
func ActiveProfile(layout fileutils.Layout) (util.Profile, bool, error) {
	state, err := fileutils.LoadAppState(layout)
	if err != nil {
		return util.Profile{}, false, err
	}
	if state.ActiveProfile == "" {
		return util.Profile{}, false, nil
	}
	profile, err := GetProfile(layout, state.ActiveProfile)
	if errors.Is(err, ErrProfileNotFound) {
		return util.Profile{}, false, nil
	}
	if err != nil {
		return util.Profile{}, false, err
	}
	return profile, true, nil
}
