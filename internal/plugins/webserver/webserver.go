// Package webserver serves local HTTP fixtures for suites that exercise
// browsers or HTTP clients.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const indexPage = `<html><head></head><body></body></html>`

// Options configures a WebServer.
type Options struct {
	Host string // defaults to localhost
	Port int    // 0 picks a free port
	CORS bool   // allow any origin

	// Root is the directory relative static paths are resolved against.
	Root string
}

// WebServer is a restartable HTTP server whose routes can be added while
// it is running.
type WebServer struct {
	opts Options

	mu       sync.RWMutex
	router   *mux.Router
	server   *http.Server
	listener net.Listener
	done     chan error
}

// New creates a stopped server.
func New(opts Options) *WebServer {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	ws := &WebServer{opts: opts, router: mux.NewRouter()}
	if opts.CORS {
		ws.router.Use(cors)
	}
	ws.router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	}).Methods(http.MethodGet)
	return ws
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP dispatches to the current routes.
func (ws *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	router := ws.router
	ws.mu.RUnlock()
	router.ServeHTTP(w, r)
}

// Start listens and serves in the background. It returns once the listener
// is bound.
func (ws *WebServer) Start(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.listener != nil {
		return errors.New("webserver: already started")
	}

	addr := net.JoinHostPort(ws.opts.Host, strconv.Itoa(ws.opts.Port))
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("webserver: listen %s: %w", addr, err)
	}
	ws.listener = l
	ws.server = &http.Server{Handler: ws, ReadHeaderTimeout: 10 * time.Second}
	ws.done = make(chan error, 1)

	srv, done := ws.server, ws.done
	go func() {
		err := srv.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	return nil
}

// Stop shuts the server down and waits for in-flight requests.
func (ws *WebServer) Stop(ctx context.Context) error {
	ws.mu.Lock()
	srv, done := ws.server, ws.done
	ws.server, ws.listener, ws.done = nil, nil, nil
	ws.mu.Unlock()
	if srv == nil {
		return errors.New("webserver: not started")
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("webserver: shutdown: %w", err)
	}
	return <-done
}

// URL returns the base URL, or "" while stopped.
func (ws *WebServer) URL() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.listener == nil {
		return ""
	}
	return "http://" + ws.listener.Addr().String()
}

// Running reports whether the server is listening.
func (ws *WebServer) Running() bool {
	return ws.URL() != ""
}

// Use adds middleware to every route.
func (ws *WebServer) Use(mw ...mux.MiddlewareFunc) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.router.Use(mw...)
}

// Static serves dir under urlPath. An empty urlPath means "/".
func (ws *WebServer) Static(urlPath, dir string) {
	prefix := cleanURLPath(urlPath)
	fs := http.FileServer(http.Dir(ws.resolve(dir)))
	if prefix != "/" {
		fs = http.StripPrefix(prefix, fs)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.router.PathPrefix(prefix).Handler(fs)
}

// StaticFile serves file at urlPath joined with the file's base name.
func (ws *WebServer) StaticFile(urlPath, file string) {
	route := path.Join(cleanURLPath(urlPath), filepath.Base(file))
	full := ws.resolve(file)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.router.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, full)
	})
}

// Handle registers a handler for method and path. An empty method
// matches any.
func (ws *WebServer) Handle(method, urlPath string, h http.HandlerFunc) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	route := ws.router.HandleFunc(cleanURLPath(urlPath), h)
	if method != "" {
		route.Methods(method)
	}
}

func (ws *WebServer) Get(urlPath string, h http.HandlerFunc)    { ws.Handle(http.MethodGet, urlPath, h) }
func (ws *WebServer) Post(urlPath string, h http.HandlerFunc)   { ws.Handle(http.MethodPost, urlPath, h) }
func (ws *WebServer) Put(urlPath string, h http.HandlerFunc)    { ws.Handle(http.MethodPut, urlPath, h) }
func (ws *WebServer) Patch(urlPath string, h http.HandlerFunc)  { ws.Handle(http.MethodPatch, urlPath, h) }
func (ws *WebServer) Delete(urlPath string, h http.HandlerFunc) { ws.Handle(http.MethodDelete, urlPath, h) }

func (ws *WebServer) resolve(p string) string {
	if filepath.IsAbs(p) || ws.opts.Root == "" {
		return p
	}
	return filepath.Join(ws.opts.Root, p)
}

func cleanURLPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
