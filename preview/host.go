package preview

import "github.com/themetester/themetester/marketplace"

// Host describes the editor the previewed theme would run in.
type Host struct {
	// Web is true for a browser-based editor.
	Web bool
	// Remote names the connected remote, if any.
	Remote string
}

// Restricted reports whether only browser entry points can run on the host.
func (h Host) Restricted() bool {
	return h.Web && h.Remote == ""
}

// Compatible reports whether the extension described by m can be installed on h.
// On a restricted host an extension declaring only a desktop entry point is
// rejected. Theme-only extensions declare no entry point and always pass.
func (h Host) Compatible(m *marketplace.Manifest) bool {
	return !h.Restricted() || m.Main == "" || m.Browser != ""
}

// ProductName is the editor name shown to the user.
func (h Host) ProductName() string {
	if h.Restricted() {
		return "Visual Studio Code for the Web"
	}
	return "Visual Studio Code"
}
