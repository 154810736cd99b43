// Package theme reads color theme documents out of a mounted package.
package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/themetester/themetester/vfs"
	"github.com/tidwall/jsonc"
)

// maxIncludeDepth bounds include chains, which also stops include cycles.
const maxIncludeDepth = 8

// ErrIncludeDepth is returned for include chains deeper than maxIncludeDepth.
var ErrIncludeDepth = errors.New("theme include chain too deep")

// Scopes is a token rule selector list. Documents write it either as one
// comma separated string or as an array.
type Scopes []string

func (s *Scopes) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = splitScopes(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}

	*s = lo.FlatMap(many, func(scope string, _ int) []string { return splitScopes(scope) })
	return nil
}

func splitScopes(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(scope string, _ int) (string, bool) {
		scope = strings.TrimSpace(scope)
		return scope, scope != ""
	})
}

// TokenSettings is how a rule paints matching tokens.
type TokenSettings struct {
	Foreground string `json:"foreground,omitempty" yaml:"foreground,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	FontStyle  string `json:"fontStyle,omitempty" yaml:"fontStyle,omitempty"`
}

// TokenColor is one tokenColors rule.
type TokenColor struct {
	Name     string        `json:"name,omitempty" yaml:"name,omitempty"`
	Scope    Scopes        `json:"scope,omitempty" yaml:"scope,omitempty"`
	Settings TokenSettings `json:"settings" yaml:"settings"`
}

// Document is a parsed color theme.
type Document struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty"`
	Include     string            `json:"include,omitempty" yaml:"include,omitempty"`
	Colors      map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`
	TokenColors []TokenColor      `json:"tokenColors,omitempty" yaml:"tokenColors,omitempty"`
}

// Parse decodes a theme document. Comments and trailing commas are allowed.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Summary is what `inspect` reports about a theme.
type Summary struct {
	Path        string   `json:"path" yaml:"path"`
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Colors      int      `json:"colors" yaml:"colors"`
	TokenColors int      `json:"tokenColors" yaml:"tokenColors"`
	Includes    []string `json:"includes,omitempty" yaml:"includes,omitempty"`
}

// Summary counts the colors and token rules of doc.
func (d *Document) Summary(name string, includes []string) Summary {
	return Summary{
		Path:        name,
		Name:        d.Name,
		Type:        d.Type,
		Colors:      len(d.Colors),
		TokenColors: len(d.TokenColors),
		Includes:    includes,
	}
}

// Color returns the workbench color registered under id.
func (d *Document) Color(id string) string {
	return d.Colors[id]
}

// Load reads the theme at name through provider and resolves its include
// chain. Included colors are overridden by the including document and
// included token rules come first, so the including document wins ties.
func Load(ctx context.Context, provider *vfs.Provider, name string) (doc *Document, includes []string, err error) {
	return load(ctx, provider, vfs.Clean(name), 0)
}

func load(ctx context.Context, provider *vfs.Provider, name string, depth int) (*Document, []string, error) {
	if depth > maxIncludeDepth {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrIncludeDepth)
	}

	data, err := provider.ReadFile(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", name, err)
	}

	if doc.Include == "" {
		return doc, nil, nil
	}

	includeName := path.Join(vfs.Dir(name), doc.Include)
	base, includes, err := load(ctx, provider, includeName, depth+1)
	if err != nil {
		return nil, nil, err
	}

	return merge(base, doc), append([]string{includeName}, includes...), nil
}

func merge(base, doc *Document) *Document {
	merged := &Document{
		Name:        lo.Ternary(doc.Name != "", doc.Name, base.Name),
		Type:        lo.Ternary(doc.Type != "", doc.Type, base.Type),
		Colors:      lo.Assign(base.Colors, doc.Colors),
		TokenColors: append(append([]TokenColor{}, base.TokenColors...), doc.TokenColors...),
	}
	return merged
}

// Inspect loads the theme at name and summarizes it.
func Inspect(ctx context.Context, provider *vfs.Provider, name string) (Summary, error) {
	doc, includes, err := Load(ctx, provider, name)
	if err != nil {
		return Summary{}, err
	}
	return doc.Summary(vfs.Clean(name), includes), nil
}
