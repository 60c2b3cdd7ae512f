// Package store persists the user's calibration settings as a JSON file
// so a confirmed calibration survives a restart.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"court-motion/calibration"
	"court-motion/court"
	"court-motion/utils"
)

var (
	settingsFile = "settings.json"
	mu           sync.RWMutex
)

func settingsPath() string {
	dir := utils.GetEnv("STORAGE_DIR", "storage")
	return filepath.Join(dir, settingsFile)
}

// LoadSettings reads the persisted settings. A missing or empty file
// yields defaults for the given court type rather than an error.
func LoadSettings(fallbackCourt court.Type) (calibration.Settings, error) {
	mu.RLock()
	defer mu.RUnlock()

	filePath := settingsPath()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return calibration.DefaultSettings(fallbackCourt)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return calibration.Settings{}, fmt.Errorf("error reading settings file: %v", err)
	}
	if len(data) == 0 {
		return calibration.DefaultSettings(fallbackCourt)
	}

	var settings calibration.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return calibration.Settings{}, fmt.Errorf("error unmarshaling settings: %v", err)
	}
	if err := settings.Validate(); err != nil {
		return calibration.Settings{}, fmt.Errorf("persisted settings invalid: %v", err)
	}
	return settings, nil
}

// SaveSettings writes the settings file atomically enough for a single
// process: full marshal, then one WriteFile.
func SaveSettings(settings calibration.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	filePath := settingsPath()
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling settings: %v", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing settings file: %v", err)
	}
	return nil
}
