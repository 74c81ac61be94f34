package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/roach88/tester/internal/command"
	"github.com/roach88/tester/internal/value"
)

// Commands exposes ws to suites under the "webserver." prefix.
//
//	webserver.start       starts the server, returns its URL
//	webserver.stop        stops it
//	webserver.url         returns the URL
//	webserver.static      {path, dir} or dir
//	webserver.staticFile  {path, file} or file
//	webserver.route       {method, path, status, headers, body}
func Commands(ws *WebServer) []command.Command {
	return []command.Command{
		{Name: "webserver.start", Handler: func(ctx context.Context, _ any) (any, error) {
			if err := ws.Start(ctx); err != nil {
				return nil, err
			}
			return ws.URL(), nil
		}},
		{Name: "webserver.stop", Handler: func(ctx context.Context, _ any) (any, error) {
			return value.Undefined, ws.Stop(ctx)
		}},
		{Name: "webserver.url", Handler: func(context.Context, any) (any, error) {
			return ws.URL(), nil
		}},
		{Name: "webserver.static", Handler: func(_ context.Context, input any) (any, error) {
			urlPath, dir, err := pathPair(input, "dir")
			if err != nil {
				return nil, fmt.Errorf("webserver.static: %w", err)
			}
			ws.Static(urlPath, dir)
			return value.Undefined, nil
		}},
		{Name: "webserver.staticFile", Handler: func(_ context.Context, input any) (any, error) {
			urlPath, file, err := pathPair(input, "file")
			if err != nil {
				return nil, fmt.Errorf("webserver.staticFile: %w", err)
			}
			ws.StaticFile(urlPath, file)
			return value.Undefined, nil
		}},
		{Name: "webserver.route", Handler: func(_ context.Context, input any) (any, error) {
			r, err := parseRoute(input)
			if err != nil {
				return nil, fmt.Errorf("webserver.route: %w", err)
			}
			ws.Handle(r.method, r.path, r.serve)
			return value.Undefined, nil
		}},
	}
}

// pathPair reads {path, <target>} or a bare target string.
func pathPair(input any, target string) (string, string, error) {
	switch in := value.MustNormalize(input).(type) {
	case string:
		return "", in, nil
	case map[string]any:
		t, ok := in[target].(string)
		if !ok {
			return "", "", fmt.Errorf("input needs a %s string", target)
		}
		p, _ := in["path"].(string)
		return p, t, nil
	}
	return "", "", fmt.Errorf("input must be a string or an object, got %s", value.TypeOf(input))
}

type cannedRoute struct {
	method  string
	path    string
	status  int
	headers map[string]string
	body    []byte
}

func parseRoute(input any) (*cannedRoute, error) {
	in, ok := value.MustNormalize(input).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("input must be an object, got %s", value.TypeOf(input))
	}
	r := &cannedRoute{status: http.StatusOK, headers: map[string]string{}}
	if r.path, ok = in["path"].(string); !ok {
		return nil, fmt.Errorf("input needs a path string")
	}
	if m, ok := in["method"].(string); ok {
		r.method = strings.ToUpper(m)
	}
	if s, ok := value.ToFloat(in["status"]); ok {
		r.status = int(s)
	}
	if h, ok := in["headers"].(map[string]any); ok {
		for k, v := range h {
			r.headers[k] = fmt.Sprint(v)
		}
	}
	switch b := in["body"].(type) {
	case nil:
	case string:
		r.body = []byte(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		r.body = data
		if _, set := r.headers["Content-Type"]; !set {
			r.headers["Content-Type"] = "application/json"
		}
	}
	return r, nil
}

func (r *cannedRoute) serve(w http.ResponseWriter, _ *http.Request) {
	for k, v := range r.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(r.status)
	_, _ = w.Write(r.body)
}
