// Package marketplace resolves extension manifests from the public gallery
// and the unpacked package host.
package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/themetester/themetester/backing"
)

// ErrManifestParse marks a package.json that could not be decoded.
var ErrManifestParse = errors.New("manifest parse error")

// ParseError describes a manifest that could not be decoded.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("problem parsing %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrManifestParse, e.Err}
}

// Manifest is the part of an extension's package.json the previewer reads.
type Manifest struct {
	Name        string      `json:"name" jsonschema:"required"`
	Publisher   string      `json:"publisher,omitempty"`
	Version     string      `json:"version" jsonschema:"required"`
	DisplayName string      `json:"displayName,omitempty"`
	Main        string      `json:"main,omitempty" jsonschema:"description=Entry point for desktop hosts"`
	Browser     string      `json:"browser,omitempty" jsonschema:"description=Entry point for browser hosts"`
	Contributes Contributes `json:"contributes,omitempty"`
}

// Contributes lists what an extension adds to the editor.
type Contributes struct {
	Themes []Theme `json:"themes,omitempty"`
}

// Theme is one color theme contributed by an extension.
type Theme struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label,omitempty"`
	Path    string `json:"path" jsonschema:"required"`
	UITheme string `json:"uiTheme,omitempty" jsonschema:"enum=vs,enum=vs-dark,enum=hc-black,enum=hc-light"`
}

// SettingsID is the value written to the theme setting to select t.
func (t Theme) SettingsID() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Label
}

// ParseManifest decodes a package.json document. source names the document in errors.
func ParseManifest(source string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return &m, nil
}

// Coordinate returns the published coordinate of the manifest. publisher is
// used when the manifest does not name its own.
func (m *Manifest) Coordinate(publisher string) backing.Coordinate {
	if m.Publisher != "" {
		publisher = m.Publisher
	}
	return backing.Coordinate{Publisher: publisher, Name: m.Name, Version: m.Version}
}

// Title returns the display name, falling back to the package name.
func (m *Manifest) Title() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Schema returns the JSON schema of the manifest fields the previewer reads.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&Manifest{})
	schema.Title = "Theme extension manifest"
	return schema
}
