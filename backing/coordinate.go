package backing

import (
	"fmt"
	"strings"
)

// DefaultPackageTemplate maps a package coordinate to the root of its unpacked
// content. Every file of the package lives below that root.
const DefaultPackageTemplate = "https://{publisher}.vscode-unpkg.net/{publisher}/{name}/{version}/extension"

// Coordinate identifies one published version of a package.
type Coordinate struct {
	Publisher string `json:"publisher"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// ID returns the publisher.name identifier.
func (c Coordinate) ID() string {
	return c.Publisher + "." + c.Name
}

func (c Coordinate) String() string {
	if c.Version == "" {
		return c.ID()
	}
	return c.ID() + "@" + c.Version
}

// PackageRoot expands template for c. The template may use the {publisher},
// {name} and {version} placeholders.
func PackageRoot(template string, c Coordinate) (Location, error) {
	if c.Publisher == "" || c.Name == "" || c.Version == "" {
		return Location{}, fmt.Errorf("incomplete package coordinate %q", c)
	}

	if template == "" {
		template = DefaultPackageTemplate
	}

	raw := strings.NewReplacer(
		"{publisher}", c.Publisher,
		"{name}", c.Name,
		"{version}", c.Version,
	).Replace(template)

	return ParseLocation(strings.TrimSuffix(raw, "/"))
}
