package apigen

import (
	"context"
	"net/url"
	"strings"
)

// Request is one data-plane request after tenant and path extraction.
type Request struct {
	TenantID string
	Method   string
	Path     string

	// Params holds values bound to {segment} placeholders.
	Params map[string]string
	Query  url.Values
	Body   []byte
}

// Response is the handler outcome; Body is serialized by the transport.
type Response struct {
	Status int
	Body   any
}

// HandlerFunc executes one generated operation.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Route is one generated endpoint. Pattern segments of the form
// {name} bind the matching path segment into Request.Params.
type Route struct {
	Method      string `json:"method"`
	Pattern     string `json:"path"`
	Description string `json:"description"`

	segments []string
	handler  HandlerFunc
}

// Serve invokes the route's handler.
func (r *Route) Serve(ctx context.Context, req *Request) (*Response, error) {
	return r.handler(ctx, req)
}

func newRoute(method, pattern, description string, h HandlerFunc) Route {
	return Route{
		Method:      method,
		Pattern:     pattern,
		Description: description,
		segments:    splitPath(pattern),
		handler:     h,
	}
}

// splitPath breaks a path into segments, dropping empty ones so leading
// and trailing slashes never affect matching.
func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// match reports whether the request segments fit this route and returns
// the bound placeholder values.
func (r *Route) match(method string, segments []string) (map[string]string, bool) {
	if method != r.Method || len(segments) != len(r.segments) {
		return nil, false
	}

	var params map[string]string
	for i, pat := range r.segments {
		if strings.HasPrefix(pat, "{") && strings.HasSuffix(pat, "}") {
			if params == nil {
				params = make(map[string]string)
			}
			params[pat[1:len(pat)-1]] = segments[i]
			continue
		}
		if pat != segments[i] {
			return nil, false
		}
	}
	return params, true
}
