package gwplugin

import (
	"encoding/json"
	"net/http"
)

// Session is the mutable per-request handle passed to every hook. It
// wraps the downstream request/response pair the embedding HTTP engine
// is driving. Plugins read and mutate the request directly; a response
// is sent to the client either by a RequestFilter hook calling Respond
// (which short-circuits the pipeline) or by the gateway core once the
// upstream response arrives.
type Session struct {
	ServiceName string
	RouteName   string

	w http.ResponseWriter
	r *http.Request
}

// NewSession wraps a downstream request/response pair for one request.
func NewSession(w http.ResponseWriter, r *http.Request, serviceName, routeName string) *Session {
	return &Session{ServiceName: serviceName, RouteName: routeName, w: w, r: r}
}

// Request returns the downstream request. Plugins may mutate its
// headers, URL, and other fields in place.
func (s *Session) Request() *http.Request {
	return s.r
}

// ResponseWriter returns the raw downstream response writer. Most
// plugins should prefer Respond; this is an escape hatch for plugins
// that need to stream a response themselves.
func (s *Session) ResponseWriter() http.ResponseWriter {
	return s.w
}

// Respond writes a complete response directly to the downstream client.
// Intended for use from RequestFilter hooks that return Responded.
func (s *Session) Respond(statusCode int, headers map[string]string, body []byte) {
	h := s.w.Header()
	for k, v := range headers {
		h.Set(k, v)
	}
	s.w.WriteHeader(statusCode)
	_, _ = s.w.Write(body)
}

// RespondJSON is a convenience wrapper around Respond for JSON bodies.
func (s *Session) RespondJSON(statusCode int, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	h := headers
	if h == nil {
		h = map[string]string{}
	}
	if _, ok := h["Content-Type"]; !ok {
		h["Content-Type"] = "application/json"
	}
	s.Respond(statusCode, h, body)
	return nil
}
