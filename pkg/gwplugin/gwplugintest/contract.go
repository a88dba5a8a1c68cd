// Package gwplugintest provides shared contract tests that verify any
// gwplugin hook implementation behaves correctly. Every plugin's test
// file should call TestHookContract to ensure conformance.
package gwplugintest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// TestHookContract runs a suite of behavioral checks against whichever
// optional hook interfaces value implements. Call this from each
// plugin's _test.go:
//
//	func TestContract(t *testing.T) {
//	    gwplugintest.TestHookContract(t, func() any {
//	        v, err := echo.New(cfg)
//	        if err != nil {
//	            t.Fatalf("New: %v", err)
//	        }
//	        return v
//	    })
//	}
func TestHookContract(t *testing.T, factory func() any) {
	t.Helper()

	t.Run("implements_at_least_one_hook", func(t *testing.T) {
		p := factory()
		if !implementsAnyHook(p) {
			t.Error("plugin implements none of the gwplugin hook interfaces")
		}
	})

	t.Run("RequestFilter_does_not_panic", func(t *testing.T) {
		p := factory()
		rf, ok := p.(gwplugin.RequestFilter)
		if !ok {
			t.Skip("plugin does not implement RequestFilter")
		}
		sess, pc := newTestSession()
		if _, err := rf.RequestFilter(context.Background(), sess, pc); err != nil {
			t.Logf("RequestFilter returned error (acceptable): %v", err)
		}
	})

	t.Run("ResponseFilter_does_not_panic", func(t *testing.T) {
		p := factory()
		respf, ok := p.(gwplugin.ResponseFilter)
		if !ok {
			t.Skip("plugin does not implement ResponseFilter")
		}
		sess, pc := newTestSession()
		if err := respf.ResponseFilter(context.Background(), sess, sess.Request().Header, pc); err != nil {
			t.Logf("ResponseFilter returned error (acceptable): %v", err)
		}
	})
}

func implementsAnyHook(p any) bool {
	if _, ok := p.(gwplugin.RequestFilter); ok {
		return true
	}
	if _, ok := p.(gwplugin.RequestBodyFilter); ok {
		return true
	}
	if _, ok := p.(gwplugin.UpstreamRequestFilter); ok {
		return true
	}
	if _, ok := p.(gwplugin.ResponseFilter); ok {
		return true
	}
	if _, ok := p.(gwplugin.ResponseBodyFilter); ok {
		return true
	}
	return false
}

func newTestSession() (*gwplugin.Session, *gwplugin.Ctx) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	return gwplugin.NewSession(w, r, "test-service", "test-route"), gwplugin.NewCtx()
}
