// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Themetester is the canonical application identifier used for filesystem paths and CLI branding.
	Themetester = "themetester"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is sent with every marketplace and package request.
	UserAgent = Themetester + "/" + Version
)

// ClientName identifies this tool to the package content host.
const ClientName = "theme-tester"

// Virtual filesystem schemes.
const (
	// SchemePlayground serves the bundled sample workspace.
	SchemePlayground = "theme-tester"

	// SchemePackage serves the file tree of the package under preview.
	SchemePackage = "theme-package"
)

// DefaultLocation is suggested when the user is asked for a theme to preview.
const DefaultLocation = "azemoh.one-monokai"

// DefaultSetting is the name of the setting that selects the active color theme.
const DefaultSetting = "workbench.colorTheme"
