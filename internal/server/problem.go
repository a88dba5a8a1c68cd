package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound      = "https://edgegate.dev/problems/not-found"
	ProblemTypeNoRoute       = "https://edgegate.dev/problems/no-route"
	ProblemTypeNoUpstream    = "https://edgegate.dev/problems/no-upstream"
	ProblemTypeBadGateway    = "https://edgegate.dev/problems/bad-gateway"
	ProblemTypePluginError   = "https://edgegate.dev/problems/plugin-error"
	ProblemTypeBadRequest    = "https://edgegate.dev/problems/bad-request"
	ProblemTypeInternal      = "https://edgegate.dev/problems/internal-error"
	ProblemTypeRateLimited   = "https://edgegate.dev/problems/rate-limited"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type" example:"https://edgegate.dev/problems/no-route"`
	Title    string `json:"title" example:"No Matching Route"`
	Status   int    `json:"status" example:"404"`
	Detail   string `json:"detail,omitempty" example:"no route matched /unknown"`
	Instance string `json:"instance,omitempty" example:"/unknown"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NotFound writes a 404 problem response for unmatched administrative
// routes (not the data-plane's no-route case; see NoRoute).
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// NoRoute writes a 404 problem response for a request path that
// matched no route in a service's matcher (spec §4.4 step 4).
func NoRoute(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNoRoute,
		Title:    "No Matching Route",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// NoUpstream writes a 503 problem response when a route's cluster has
// no endpoints currently available (spec §8 example 6).
func NoUpstream(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNoUpstream,
		Title:    "No Endpoints Available",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: instance,
	})
}

// BadGateway writes a 502 problem response when the upstream request
// itself fails (connection refused, timeout, reset).
func BadGateway(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadGateway,
		Title:    "Bad Gateway",
		Status:   http.StatusBadGateway,
		Detail:   detail,
		Instance: instance,
	})
}

// PluginError writes a 500 problem response when a plugin hook returns
// an error (spec §7).
func PluginError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypePluginError,
		Title:    "Plugin Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeRateLimited,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: instance,
	})
}
