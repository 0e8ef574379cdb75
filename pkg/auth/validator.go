package auth

import (
	"net/url"
	"strings"
	"time"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/logging"
)

// Timeouts for validation probes. Cheaper than login's: validation runs on
// every startup and before every publish.
const (
	quickProbeWait   = 3 * time.Second
	validateNavWait  = 15 * time.Second
	postNavProbeWait = 5 * time.Second
)

// Validator determines whether the current browser context is
// authenticated without running a login attempt.
type Validator struct {
	drv Driver
	sel *config.Selectors
	log *logging.Logger
}

// NewValidator creates a session validator.
func NewValidator(drv Driver, sel *config.Selectors, log *logging.Logger) *Validator {
	return &Validator{drv: drv, sel: sel, log: log}
}

// IsAuthenticated probes for the authenticated-home signal. It makes no
// assumption about the current page, resolves every navigation failure or
// timeout to false, and never errors.
func (v *Validator) IsAuthenticated() bool {
	current := v.drv.URL()

	if OnDomain(current, v.sel.Domain) {
		if v.drv.ExistsAny(v.sel.HomeSignal, quickProbeWait) {
			return true
		}
		// Fast negative: sitting on the login surface means not logged in.
		if ContainsAny(current, v.sel.LoginIndicators) {
			v.log.Debugf("on login surface %s, not authenticated", current)
			return false
		}
	}

	if err := v.drv.Goto(v.sel.HomeURL, validateNavWait); err != nil {
		v.log.Debugf("validation navigation failed: %v", err)
		return false
	}

	authenticated := v.drv.ExistsAny(v.sel.HomeSignal, postNavProbeWait)
	v.log.Debugf("home signal probe after navigation: %v", authenticated)
	return authenticated
}

// OnDomain reports whether rawURL is on the target domain or one of its
// subdomains.
func OnDomain(rawURL, domain string) bool {
	if rawURL == "" || domain == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
