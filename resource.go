package cif

import (
	"compress/gzip"
	"embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ResourceProvider is the external collaborator spec.md §6 describes:
// "load_resource(name) -> Option<ReadableByteStream>". The core never
// opens a file itself; every dictionary load goes through one of these.
type ResourceProvider interface {
	// LoadResource returns a stream for name, or (nil, nil) if name is not
	// known to this provider — absence is not an error.
	LoadResource(name string) (io.ReadCloser, error)
}

//go:embed dictionaries
var embeddedDictionaries embed.FS

// EmbeddedResourceProvider serves dictionaries baked into the binary via
// go:embed, transparently gunzipping any name ending in ".gz". Placed last
// in a ChainResourceProvider, it serves as the fallback when no directory
// provider has the name.
type EmbeddedResourceProvider struct{}

func (EmbeddedResourceProvider) LoadResource(name string) (io.ReadCloser, error) {
	return openEmbedded(name)
}

func openEmbedded(name string) (io.ReadCloser, error) {
	f, err := embeddedDictionaries.Open(filepath.Join("dictionaries", name))
	if err != nil {
		f, err = embeddedDictionaries.Open(filepath.Join("dictionaries", name+".gz"))
		if err != nil {
			return nil, nil //nolint: nilnil // absence is not an error, per ResourceProvider's contract
		}
		return gzipReadCloser(f)
	}
	if strings.HasSuffix(name, ".gz") {
		return gzipReadCloser(f)
	}
	return f, nil
}

func gzipReadCloser(f io.ReadCloser) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, &IoError{Op: "gunzip", Err: err}
	}
	return &gzipCloser{gz: gz, under: f}, nil
}

type gzipCloser struct {
	gz    *gzip.Reader
	under io.ReadCloser
}

func (g *gzipCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipCloser) Close() error {
	err := g.gz.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}

// DirectoryResourceProvider serves dictionaries from a filesystem
// directory, watching it with fsnotify so a dictionary can be dropped in
// or updated without restarting the process. A watched change only calls
// the OnChange callback; a ValidatorFactory cache entry is dropped when
// that callback calls ValidatorFactory.Invalidate.
type DirectoryResourceProvider struct {
	Dir    string
	Logger *slog.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onChange func(name string)
}

// NewDirectoryResourceProvider starts watching dir. Callers should call
// Close when done to release the underlying fsnotify watcher.
func NewDirectoryResourceProvider(dir string, logger *slog.Logger) (*DirectoryResourceProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &IoError{Op: "watch " + dir, Err: err}
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, &IoError{Op: "watch " + dir, Err: err}
	}
	p := &DirectoryResourceProvider{Dir: dir, Logger: logger, watcher: w}
	go p.watch()
	return p, nil
}

func (p *DirectoryResourceProvider) watch() {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			p.Logger.Debug("dictionary resource changed", "name", name, "op", ev.Op.String())
			p.mu.Lock()
			cb := p.onChange
			p.mu.Unlock()
			if cb != nil {
				cb(name)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.Logger.Warn("dictionary directory watch error", "error", err)
		}
	}
}

// OnChange registers a callback invoked (on the watcher goroutine) with
// the base name of a file that changed under Dir. Intended use:
// invalidate a ValidatorFactory entry for that name.
func (p *DirectoryResourceProvider) OnChange(fn func(name string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *DirectoryResourceProvider) Close() error {
	return p.watcher.Close()
}

func (p *DirectoryResourceProvider) LoadResource(name string) (io.ReadCloser, error) {
	path := filepath.Join(p.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			gzPath := path + ".gz"
			gzf, gzErr := os.Open(gzPath)
			if gzErr != nil {
				return nil, nil //nolint: nilnil // absence is not an error
			}
			return gzipReadCloser(gzf)
		}
		return nil, &IoError{Op: "open " + path, Err: err}
	}
	if strings.HasSuffix(name, ".gz") {
		return gzipReadCloser(f)
	}
	return f, nil
}

// ChainResourceProvider tries each provider in order and returns the first
// non-nil stream.
type ChainResourceProvider []ResourceProvider

func (c ChainResourceProvider) LoadResource(name string) (io.ReadCloser, error) {
	for _, p := range c {
		r, err := p.LoadResource(name)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}

// Invalidate removes name's cached Validator, if any, forcing the next Get
// to rebuild it from the resource provider. Wire this as a
// DirectoryResourceProvider.OnChange callback to pick up edited
// dictionaries without a process restart.
func (vf *ValidatorFactory) Invalidate(name string) {
	vf.mu.Lock()
	defer vf.mu.Unlock()
	delete(vf.cache, name)
}

// GetFromResource loads and compiles the named dictionary through
// provider, caching the result under name.
func (vf *ValidatorFactory) GetFromResource(provider ResourceProvider, name string) (*Validator, error) {
	return vf.Get(name, func() (*Validator, error) {
		r, err := provider.LoadResource(name)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, &DictionaryError{Message: "resource " + strconv.Quote(name) + " not found"}
		}
		defer r.Close()
		return ParseDictionary(r, name)
	})
}
