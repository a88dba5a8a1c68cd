package cmsrate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgegate/edgegate/pkg/gwplugin"
	"github.com/edgegate/edgegate/pkg/gwplugin/gwplugintest"
)

func TestCmsRate_HookContract(t *testing.T) {
	gwplugintest.TestHookContract(t, func() any {
		v, err := New([]byte("total: 3\ninterval: 5s\n"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return v
	})
}

func newSessionFrom(ip string) *gwplugin.Session {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ip + ":12345"
	return gwplugin.NewSession(w, r, "svc", "route")
}

func TestNew_RejectsZeroTotal(t *testing.T) {
	if _, err := New([]byte("total: 0\ninterval: 5s\n")); err == nil {
		t.Fatal("expected error for total: 0")
	}
}

func TestNew_RejectsInvalidInterval(t *testing.T) {
	if _, err := New([]byte("total: 3\ninterval: not-a-duration\n")); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}

func TestRequestFilter_AllowsUpToTotalThenTrips(t *testing.T) {
	v, err := New([]byte("total: 3\ninterval: 5s\n"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := v.(*Plugin)

	var responded int
	for i := 0; i < 4; i++ {
		sess := newSessionFrom("203.0.113.5")
		result, err := p.RequestFilter(context.Background(), sess, gwplugin.NewCtx())
		if err != nil {
			t.Fatalf("RequestFilter: %v", err)
		}
		if result == gwplugin.Responded {
			responded++
		}
	}

	if responded != 1 {
		t.Fatalf("expected exactly the 4th request to trip the limit, got %d responded", responded)
	}
}

func TestRequestFilter_DistinctKeysTrackedSeparately(t *testing.T) {
	v, err := New([]byte("total: 1\ninterval: 5s\n"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := v.(*Plugin)

	result, err := p.RequestFilter(context.Background(), newSessionFrom("10.0.0.1"), gwplugin.NewCtx())
	if err != nil || result == gwplugin.Responded {
		t.Fatalf("first request from 10.0.0.1 should pass, got %v, %v", result, err)
	}

	result, err = p.RequestFilter(context.Background(), newSessionFrom("10.0.0.2"), gwplugin.NewCtx())
	if err != nil || result == gwplugin.Responded {
		t.Fatalf("first request from distinct key 10.0.0.2 should pass, got %v, %v", result, err)
	}
}

func TestFingerprint_PrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := fingerprint(r); got != "203.0.113.9" {
		t.Fatalf("fingerprint = %q, want 203.0.113.9", got)
	}
}

func TestFingerprint_FallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	if got := fingerprint(r); got != "10.0.0.1" {
		t.Fatalf("fingerprint = %q, want 10.0.0.1", got)
	}
}
