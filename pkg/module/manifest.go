package module

import "encoding/json"

// Manifest is the per-package module.json descriptor (§6 "Manifest
// format"). Parsed with the standard library's encoding/json — the spec
// names JSON outright as the manifest format, so there is no ecosystem
// library choice to make here (see SPEC_FULL.md §B.3).
type Manifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Type         string            `json:"type"`
	Sources      []string          `json:"sources"`
	Main         string            `json:"main"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Modules      []string          `json:"modules,omitempty"`
}

// ParseManifest decodes a module.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
