package preview

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/themetester/themetester/util"
)

// Location names a theme extension and optionally one of its themes.
type Location struct {
	Publisher string
	Name      string
	// Theme is matched case-insensitively against the settings ids of the
	// contributed themes. Empty selects the first one.
	Theme string
}

// ID returns publisher.name.
func (l Location) ID() string {
	return l.Publisher + "." + l.Name
}

func (l Location) String() string {
	if l.Theme == "" {
		return l.ID()
	}
	return l.ID() + "/" + l.Theme
}

var locationPattern = regexp.MustCompile(`(?i)/theme/(?P<publisher>[^./]+)\.(?P<name>[^/]+)(?:/(?P<theme>.*))?$`)

const locationForm = "'/theme/publisher.name(/themeName)?'"

// ParseLocation accepts publisher.name[/themeName], optionally as the tail of a
// path such as /editor/theme/publisher.name.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") {
		raw = "/theme/" + raw
	}

	groups := util.ReGroups(locationPattern, raw)
	if groups["publisher"] == "" || groups["name"] == "" {
		return Location{}, newError(InvalidLocation, nil, "Invalid location %q. Must be in the form %s", raw, locationForm)
	}

	return Location{
		Publisher: groups["publisher"],
		Name:      groups["name"],
		Theme:     strings.TrimSuffix(groups["theme"], "/"),
	}, nil
}

// ParseURL accepts a link to a theme: either a URL whose path ends in
// /theme/publisher.name[/themeName], or a handler URL of the form
// .../open?<url> wrapping one.
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, newError(InvalidLocation, err, "Invalid URL %q", raw)
	}

	if strings.HasSuffix(u.Path, "/open") && u.RawQuery != "" {
		inner, err := url.QueryUnescape(u.RawQuery)
		if err != nil {
			return Location{}, newError(InvalidLocation, err, "Invalid URL %q", raw)
		}
		if u, err = url.Parse(inner); err != nil {
			return Location{}, newError(InvalidLocation, err, "Invalid URL %q", raw)
		}
	}

	if !strings.HasPrefix(u.Path, "/") {
		return Location{}, newError(InvalidLocation, nil, "Invalid URL %q. Must be in the form %s", raw, locationForm)
	}

	return ParseLocation(u.Path)
}
