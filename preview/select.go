package preview

import (
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/themetester/themetester/marketplace"
)

// SettingsIDs returns the settings id of every contributed theme in manifest
// order. Themes with neither id nor label can not be selected and are left out.
func SettingsIDs(m *marketplace.Manifest) []string {
	return lo.Filter(
		lo.Map(m.Contributes.Themes, func(t marketplace.Theme, _ int) string { return t.SettingsID() }),
		func(id string, _ int) bool { return id != "" },
	)
}

// Select picks the theme to preview. An empty request selects the first theme;
// otherwise the first theme whose settings id equals the request ignoring case.
func Select(m *marketplace.Manifest, loc Location) (string, error) {
	ids := SettingsIDs(m)
	if len(ids) == 0 {
		return "", newError(NoArtifacts, nil, "Extension %s (%s) does not contain any color themes.", m.Name, loc.ID())
	}

	if loc.Theme == "" {
		return ids[0], nil
	}

	if id, ok := lo.Find(ids, func(id string) bool { return strings.EqualFold(id, loc.Theme) }); ok {
		return id, nil
	}

	msg := fmt.Sprintf(
		"Extension %s (%s) does not contain a color theme %s.\nTry one of %s instead.",
		m.Name, loc.ID(), loc.Theme, strings.Join(ids, ", "),
	)
	if closest := closestID(ids, loc.Theme); closest != "" {
		msg += fmt.Sprintf(" Did you mean %s?", closest)
	}

	return "", newError(ArtifactNotFound, nil, "%s", msg)
}

// closestID suggests the id nearest to requested, or "" when every id is
// too far off to be a plausible typo.
func closestID(ids []string, requested string) string {
	requested = strings.ToLower(requested)
	distance := func(id string) int {
		return levenshtein.Distance(requested, strings.ToLower(id))
	}

	closest := lo.MinBy(ids, func(a, b string) bool { return distance(a) < distance(b) })
	if distance(closest) > len(requested)/2 {
		return ""
	}
	return closest
}
