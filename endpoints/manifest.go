// Package endpoints turns the device's /getEndpoints manifest into forms and
// links, and submits those forms back to the device.
package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"cube-panel/models"
)

// ParseManifest decodes {"<category>": [descriptor, ...], ...}. Categories keep
// the order they appear in data. Each descriptor gets its Category filled,
// Method upper-cased (GET when absent) and a non-nil Params.
func ParseManifest(data []byte) (models.Manifest, error) {
	var m models.Manifest
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return m, fmt.Errorf("manifest: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return m, fmt.Errorf("manifest: %w", err)
		}
		name := tok.(string)

		var list []models.EndpointDescriptor
		if err := dec.Decode(&list); err != nil {
			return m, fmt.Errorf("manifest: category %q: %w", name, err)
		}
		for i := range list {
			list[i].Category = name
			list[i].Method = strings.ToUpper(list[i].Method)
			if list[i].Method == "" {
				list[i].Method = http.MethodGet
			}
			if list[i].Params == nil {
				list[i].Params = []string{}
			}
		}
		m.Categories = append(m.Categories, models.Category{Name: name, Endpoints: list})
	}

	if _, err := dec.Token(); err != nil {
		return m, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}
