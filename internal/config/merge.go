package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyVersion = "version"
	keyList    = "list"
	keyTable   = "table"
	keyLogging = "logging"
	keyCache   = "cache"
)

// knownTopLevelKeys lists the YAML keys that correspond to exported Config fields.
// Keys not in this list are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyVersion: true,
	keyList:    true,
	keyTable:   true,
	keyLogging: true,
	keyCache:   true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes data into a fresh zero value of the section
// named by key and replaces that section of target wholesale.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyVersion:
		return decodeInto(data, &target.Version)
	case keyList:
		return decodeInto(data, &target.List)
	case keyTable:
		return decodeInto(data, &target.Table)
	case keyLogging:
		return decodeInto(data, &target.Logging)
	case keyCache:
		return decodeInto(data, &target.Cache)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

func decodeInto[S any](data []byte, dst *S) error {
	var v S
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}
