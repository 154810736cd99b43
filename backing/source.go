package backing

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/network"
)

// Source reads raw bytes at a location.
type Source interface {
	ReadFile(ctx context.Context, loc Location) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, loc Location) ([]byte, error)

func (f SourceFunc) ReadFile(ctx context.Context, loc Location) ([]byte, error) {
	return f(ctx, loc)
}

// AferoSource reads locations from an afero filesystem: the OS disk, an
// in-memory filesystem in tests, or bundled files through afero.FromIOFS.
type AferoSource struct {
	Fs afero.Fs
	// Relative strips the leading slash from location paths, as io/fs
	// backed filesystems expect unrooted names.
	Relative bool
}

func (s *AferoSource) ReadFile(ctx context.Context, loc Location) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := loc.Path()
	if s.Relative {
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			name = "."
		}
	}

	data, err := afero.ReadFile(s.Fs, name)
	if err != nil {
		return nil, &FetchError{Location: loc, Err: err}
	}

	return data, nil
}

// HTTPSource fetches locations over HTTP(S).
type HTTPSource struct {
	// Client defaults to network.Client.
	Client *http.Client
	// Header is added to every request.
	Header http.Header
}

func (s *HTTPSource) ReadFile(ctx context.Context, loc Location) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = network.Client
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, &FetchError{Location: loc, Err: err}
	}

	for name, values := range s.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	log.Debugf("GET %s", loc)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: loc, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > http.StatusNoContent {
		return nil, &FetchError{Location: loc, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Location: loc, Err: err}
	}

	return data, nil
}

// Router dispatches each location to the source registered for its scheme.
type Router struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{sources: make(map[string]Source)}
}

// Handle registers src for the given schemes, replacing earlier registrations.
func (r *Router) Handle(src Source, schemes ...string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, scheme := range schemes {
		r.sources[scheme] = src
	}
	return r
}

func (r *Router) ReadFile(ctx context.Context, loc Location) ([]byte, error) {
	r.mu.RLock()
	src, ok := r.sources[loc.Scheme()]
	r.mu.RUnlock()

	if !ok {
		return nil, &FetchError{Location: loc, Err: ErrUnsupportedScheme}
	}

	return src.ReadFile(ctx, loc)
}
