// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Preview Workflow - these keys control which setting is previewed and what is offered by default.
const (
	PreviewSetting         = "preview.setting"
	PreviewDefaultLocation = "preview.default_location"
	PreviewShowSuggestions = "preview.show_suggestions"
)

// Host Environment - these keys describe where previewed packages would run.
const (
	HostWeb    = "host.web"
	HostRemote = "host.remote"
)

// Marketplace - these keys locate the extension gallery.
const (
	MarketplaceGalleryURL = "marketplace.gallery_url"
	MarketplaceClientID   = "marketplace.client_id"
)

// Backing Content - these keys locate the unpacked package files.
const (
	BackingUnpkgTemplate = "backing.unpkg_template"
	BackingS3Region      = "backing.s3.region"
	BackingS3Endpoint    = "backing.s3.endpoint"
)

// Playground - these keys configure the bundled sample workspace.
const (
	PlaygroundInjectHeader = "playground.inject_header"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored = "cli.colored"
	CliWrap    = "cli.wrap"
)
