// conf/utils.go various util functions for configuration package
package conf

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

// OS name constants for runtime.GOOS comparisons.
const (
	osLinux   = "linux"
	osWindows = "windows"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// If a config.yaml exists in one of them, only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Roaming", "handsoff"),
		}
	default:
		configPaths = []string{
			".",
			filepath.Join(homeDir, ".config", "handsoff"),
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// FindConfigFile locates the configuration file.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "find-config-paths").
			Build()
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Category(errors.CategoryNotFound).
		Context("operation", "find-config-file").
		Build()
}

// CheckDeviceGroups warns on Linux when the current user cannot reach the sound device.
// Membership of "video" is also reported since camera capture tools usually need it.
func CheckDeviceGroups() {
	if runtime.GOOS != osLinux {
		return
	}

	currentUser, err := user.Current()
	if err != nil {
		GetLogger().Warn("Failed to get current user", logger.Error(err))
		return
	}

	// root has access to all devices
	if currentUser.Username == "root" {
		return
	}

	groupIDs, err := currentUser.GroupIds()
	if err != nil {
		GetLogger().Warn("Failed to get group memberships", logger.Error(err))
		return
	}

	member := map[string]bool{}
	for _, gid := range groupIDs {
		group, err := user.LookupGroupId(gid)
		if err != nil {
			GetLogger().Warn("Failed to lookup group", logger.String("gid", gid), logger.Error(err))
			continue
		}
		member[group.Name] = true
	}

	for _, name := range []string{"audio", "video"} {
		if !member[name] {
			GetLogger().Warn("User is not member of device group",
				logger.String("username", currentUser.Username),
				logger.String("group", name),
				logger.String("fix_command", fmt.Sprintf("sudo usermod -a -G %s %s", name, currentUser.Username)))
		}
	}
}
