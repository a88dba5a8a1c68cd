package echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgegate/edgegate/pkg/gwplugin"
	"github.com/edgegate/edgegate/pkg/gwplugin/gwplugintest"
)

func TestEcho_HookContract(t *testing.T) {
	gwplugintest.TestHookContract(t, func() any {
		v, err := New([]byte("body: \"hi\"\nstatus_code: 200\n"))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return v
	})
}

func TestNew_ValidConfig(t *testing.T) {
	v, err := New([]byte(`
body: "hi"
status_code: 200
headers:
  x: "1"
`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, ok := v.(*Plugin)
	if !ok {
		t.Fatalf("New returned %T, want *Plugin", v)
	}
	if string(p.body) != "hi" || p.statusCode != 200 || p.headers["x"] != "1" {
		t.Fatalf("unexpected plugin state: %+v", p)
	}
}

func TestNew_InvalidStatusCodeRejected(t *testing.T) {
	if _, err := New([]byte("body: hi\nstatus_code: 999\n")); err == nil {
		t.Fatal("expected error for out-of-range status_code")
	}
}

func TestRequestFilter_WritesConfiguredResponse(t *testing.T) {
	v, err := New([]byte(`
body: "hi"
status_code: 200
headers:
  x: "1"
`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := v.(*Plugin)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/a", nil)
	sess := gwplugin.NewSession(w, r, "svc", "route")

	result, err := p.RequestFilter(context.Background(), sess, gwplugin.NewCtx())
	if err != nil {
		t.Fatalf("RequestFilter: %v", err)
	}
	if result != gwplugin.Responded {
		t.Fatalf("result = %v, want Responded", result)
	}
	if w.Code != 200 || w.Body.String() != "hi" || w.Header().Get("x") != "1" {
		t.Fatalf("unexpected response: code=%d body=%q header=%q", w.Code, w.Body.String(), w.Header().Get("x"))
	}
}
