package auth

import (
	"errors"
	"testing"

	"github.com/perchlabs/perch/pkg/config"
)

func TestValidatorAcceptsSessionWithoutNavigating(t *testing.T) {
	sel := config.DefaultSelectors()
	drv := newFakeDriver(sel)
	drv.url = "https://x.com/home"
	drv.homeSignalAt = 1

	v := NewValidator(drv, sel, testLogger(t))
	if !v.IsAuthenticated() {
		t.Fatal("Restored session with a visible home signal must validate")
	}
	if len(drv.gotos) != 0 {
		t.Errorf("Quick on-domain probe must not navigate, got %v", drv.gotos)
	}
}

func TestValidatorFastNegativeOnLoginSurface(t *testing.T) {
	sel := config.DefaultSelectors()
	drv := newFakeDriver(sel)
	drv.url = "https://x.com/i/flow/login"
	drv.homeSignalAt = 0

	v := NewValidator(drv, sel, testLogger(t))
	if v.IsAuthenticated() {
		t.Fatal("Sitting on the login surface must validate false")
	}
	if len(drv.gotos) != 0 {
		t.Errorf("Login-surface fast negative must not navigate, got %v", drv.gotos)
	}
}

func TestValidatorNavigatesHomeWhenOffDomain(t *testing.T) {
	sel := config.DefaultSelectors()
	drv := newFakeDriver(sel)
	drv.url = "about:blank"
	drv.homeSignalAt = 1

	v := NewValidator(drv, sel, testLogger(t))
	if !v.IsAuthenticated() {
		t.Fatal("Home signal after navigation must validate")
	}
	if len(drv.gotos) != 1 || drv.gotos[0] != sel.HomeURL {
		t.Errorf("Expected one navigation to %s, got %v", sel.HomeURL, drv.gotos)
	}
}

func TestValidatorStaleOnDomainSessionRechecksViaHome(t *testing.T) {
	sel := config.DefaultSelectors()
	drv := newFakeDriver(sel)
	drv.url = "https://x.com/some/page"
	drv.homeSignalAt = 0

	v := NewValidator(drv, sel, testLogger(t))
	if v.IsAuthenticated() {
		t.Fatal("No home signal anywhere must validate false")
	}
	if len(drv.gotos) != 1 || drv.gotos[0] != sel.HomeURL {
		t.Errorf("Expected a home navigation recheck, got %v", drv.gotos)
	}
	if drv.homeProbes != 2 {
		t.Errorf("Home signal probed %d times, want quick probe + post-nav probe", drv.homeProbes)
	}
}

func TestValidatorResolvesNavigationFailureToFalse(t *testing.T) {
	sel := config.DefaultSelectors()
	drv := newFakeDriver(sel)
	drv.url = "about:blank"
	drv.gotoErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	v := NewValidator(drv, sel, testLogger(t))
	if v.IsAuthenticated() {
		t.Fatal("Navigation failure must validate false, never error")
	}
}
