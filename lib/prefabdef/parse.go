// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefabdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Definition.
func Parse(data []byte) (*Definition, error) {
	stripped := jsonc.ToJSON(data)

	var definition Definition
	if err := json.Unmarshal(stripped, &definition); err != nil {
		return nil, fmt.Errorf("parsing template definition: %w", err)
	}

	return &definition, nil
}

// ReadFile reads and parses a JSONC definition file. A definition
// without a name takes it from the file name.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	definition, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if definition.Name == "" {
		definition.Name = NameFromPath(path)
	}

	return definition, nil
}

// NameFromPath extracts a template name from a file path by stripping
// the directory prefix and the file extension. For example,
// "content/prefabs/gatehouse.jsonc" returns "gatehouse".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
