package browser

import "time"

// Options configures the driver's single browser session.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// UserAgent overrides the browser user agent. Empty uses DefaultUserAgent.
	UserAgent string

	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// ArtifactDir is where diagnostic screenshots are written.
	ArtifactDir string

	// DefaultTimeout applies to operations invoked without an explicit bound.
	DefaultTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Cookie is the driver's view of a browser cookie, carrying only the
// fields the session store persists.
type Cookie struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Domain  string  `json:"domain"`
	Path    string  `json:"path"`
	Expires float64 `json:"expires"`
}

// Default values for driver operations.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900

	// DefaultUserAgent is a plain desktop UA; the automation flag the
	// browser would otherwise advertise is stripped via launch args.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)
