package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a dataset encoding.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 4 << 20

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a dataset file, choosing the decoder by extension.
func Load(path string) ([]Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return records, nil
}

// Decode reads records from r in the given format.
//
// JSON expects a top-level array of objects, NDJSON one object per line,
// YAML a sequence of mappings and TOML an array of tables named "records".
func Decode(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatJSON:
		var records []Record
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding JSON array: %w", err)
		}
		return records, nil
	case FormatNDJSON:
		return decodeNDJSON(r)
	case FormatYAML:
		var records []Record
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding YAML sequence: %w", err)
		}
		return records, nil
	case FormatTOML:
		var doc struct {
			Records []Record `toml:"records"`
		}
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding TOML: %w", err)
		}
		return doc.Records, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeNDJSON(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading NDJSON: %w", err)
	}
	return records, nil
}
