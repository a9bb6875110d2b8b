package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/jsonio"
	"github.com/mobilectl/mobilectl/internal/msg"
)

// FormatVersion is the version of the registry file layout.
const FormatVersion = "1.0"

//go:embed schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("registry.schema.json", schemaSource)

// Metadata describes the registry file itself.
type Metadata struct {
	LastUpdated time.Time `json:"last_updated"`
	Version     string    `json:"version"`
}

// document is the on-disk layout of the registry.
type document struct {
	Devices  map[string]devices.Device `json:"devices"`
	Metadata Metadata                  `json:"metadata"`
}

// load reads the registry file at path. A missing file yields an empty document.
func load(path string) (document, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return document{Devices: map[string]devices.Device{}, Metadata: Metadata{Version: FormatVersion}}, nil
	}
	if err != nil {
		return document{}, err
	}

	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return document{}, fmt.Errorf("%s: %w", msg.InvalidRegistryFile, err)
	}
	if err := schema.Validate(raw); err != nil {
		return document{}, fmt.Errorf("%s: %w", msg.InvalidRegistryFile, err)
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("%s: %w", msg.InvalidRegistryFile, err)
	}
	if doc.Devices == nil {
		doc.Devices = map[string]devices.Device{}
	}

	return doc, nil
}

// save rewrites the complete registry file.
func save(path string, doc document) error {
	return jsonio.WriteFile(path, doc, 0644)
}
