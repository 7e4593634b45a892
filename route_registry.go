package l10n

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method  string `json:"method,omitempty"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// RouteRegistry wraps http.ServeMux and records registered routes for introspection.
type RouteRegistry struct {
	mux    *http.ServeMux
	mu     sync.Mutex
	routes []RouteInfo
}

func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{mux: http.NewServeMux()}
}

// HandleRoute registers handler for method and path. The name defaults to
// the handler's function name.
func (r *RouteRegistry) HandleRoute(method, path, name string, handler http.HandlerFunc) {
	if name == "" {
		name = handlerName(handler)
	}
	r.mu.Lock()
	r.routes = append(r.routes, RouteInfo{
		Method:  method,
		Path:    path,
		Handler: name,
	})
	r.mu.Unlock()

	pattern := path
	if method != "" {
		pattern = method + " " + path
	}
	r.mux.HandleFunc(pattern, handler)
}

func (r *RouteRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *RouteRegistry) Routes() []RouteInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RouteInfo, len(r.routes))
	copy(out, r.routes)
	return out
}

func handlerName(handler http.HandlerFunc) string {
	if handler == nil {
		return ""
	}
	ptr := reflect.ValueOf(handler).Pointer()
	if ptr == 0 {
		return ""
	}
	if fn := runtime.FuncForPC(ptr); fn != nil {
		return strings.TrimSuffix(fn.Name(), "-fm")
	}
	return ""
}
