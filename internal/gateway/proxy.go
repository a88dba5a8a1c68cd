package gateway

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"strconv"

	"go.uber.org/zap"

	"github.com/edgegate/edgegate/internal/cluster"
	"github.com/edgegate/edgegate/internal/pipeline"
	"github.com/edgegate/edgegate/internal/server"
	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// ServeHTTP implements the per-request lifecycle of spec §4.5/§6:
// match a route, run the effective plugin chain's request_filter, pick
// a backend endpoint, run upstream_request_filter, proxy via
// httputil.ReverseProxy (running response_filter as a proxy hook), and
// run response_body_filter over the buffered response body before it
// is written to the client.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := s.Matcher.Match(r.URL.Path)
	if !ok {
		server.NoRoute(w, "no route matched "+r.URL.Path, r.URL.Path)
		return
	}

	chain := s.RoutePipelines[route.Name]
	sess := gwplugin.NewSession(w, r, s.Name, route.Name)
	pc := gwplugin.NewCtx()
	ctx := r.Context()

	result, err := chain.RunRequestFilter(ctx, sess, pc)
	if err != nil {
		server.PluginError(w, err.Error(), r.URL.Path)
		return
	}
	if result == gwplugin.Responded {
		return
	}

	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			server.BadGateway(w, "reading request body: "+err.Error(), r.URL.Path)
			return
		}
		if err := chain.RunRequestBodyFilter(ctx, sess, &body, true, pc); err != nil {
			server.PluginError(w, err.Error(), r.URL.Path)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
	}

	clusterName := s.RouteClusterRef[route.Name]
	cl, ok := s.Clusters[clusterName]
	if !ok {
		server.NoUpstream(w, "route references unknown cluster "+clusterName, r.URL.Path)
		return
	}

	endpoint, err := cl.Pick()
	if err != nil {
		server.NoUpstream(w, err.Error(), r.URL.Path)
		return
	}

	s.proxyTo(w, r, endpoint, chain, sess, pc)
}

// proxyTo runs upstream_request_filter (answering a hook error with a
// 500 plugin-error problem) and then dials endpoint through
// httputil.ReverseProxy. Director retargets the request to endpoint;
// ModifyResponse applies response_filter and response_body_filter;
// ErrorHandler reports a response hook error as a 500 plugin-error
// problem and upstream connection failures as 502 problems, grounded
// on the teacher's ReverseProxyManager zap-logged error handler.
func (s *Service) proxyTo(w http.ResponseWriter, r *http.Request, endpoint cluster.Endpoint, chain *pipeline.Chain, sess *gwplugin.Session, pc *gwplugin.Ctx) {
	ctx := r.Context()

	// The outbound header is cloned from r.Header, so filtering it here
	// reaches the upstream while a hook error can still abort the request.
	if err := chain.RunUpstreamRequestFilter(ctx, sess, r.Header, pc); err != nil {
		server.PluginError(w, err.Error(), r.URL.Path)
		return
	}

	var hookErr error
	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
			req.URL.Host = endpoint.String()
			req.Host = endpoint.String()
		},
		ModifyResponse: func(resp *http.Response) error {
			if err := chain.RunResponseFilter(ctx, sess, resp.Header, pc); err != nil {
				hookErr = err
				return err
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if err := chain.RunResponseBodyFilter(ctx, sess, &body, true, pc); err != nil {
				hookErr = err
				return err
			}
			resp.Body = io.NopCloser(bytes.NewReader(body))
			resp.ContentLength = int64(len(body))
			resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, proxyErr error) {
			s.logger.Warn("reverse proxy error",
				zap.String("service", s.Name),
				zap.String("target", endpoint.String()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(proxyErr),
			)
			if hookErr != nil {
				server.PluginError(w, hookErr.Error(), r.URL.Path)
				return
			}
			server.BadGateway(w, proxyErr.Error(), r.URL.Path)
		},
	}

	proxy.ServeHTTP(w, r)
}
