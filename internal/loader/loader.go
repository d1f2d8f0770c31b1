package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/jsonvalue"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
	"golang.org/x/sync/singleflight"
)

const utf8BOM = "\ufeff"

// DefaultManifestNames returns the file names tried in a package directory, in order
func DefaultManifestNames() []string {
	return []string{"package.json", "package.yaml"}
}

// Options configures a Loader
type Options struct {
	// ManifestNames are tried in order by LoadDir and Closest
	ManifestNames []string
	// Cache is consulted before reading a file. Nil disables caching.
	Cache  domain.ManifestCache
	Logger *utils.Logger
}

// Loader loads manifests from disk
type Loader struct {
	names  []string
	cache  domain.ManifestCache
	logger *utils.Logger
	group  singleflight.Group
}

// NewLoader creates a new manifest loader
func NewLoader(opts Options) *Loader {
	names := opts.ManifestNames
	if len(names) == 0 {
		names = DefaultManifestNames()
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Loader{
		names:  names,
		cache:  opts.Cache,
		logger: logger.WithComponent("loader"),
	}
}

// ManifestNames returns the file names tried in a package directory
func (l *Loader) ManifestNames() []string {
	return append([]string(nil), l.names...)
}

// Load reads and parses the manifest file at path
func (l *Loader) Load(ctx context.Context, path string) (*domain.LoadedManifest, error) {
	abs, err := utils.AbsPath(path)
	if err != nil {
		return nil, domain.NewLoadError(path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the load is shared by every concurrent caller, so it runs detached from
	// the cancellation of whichever caller started it
	ch := l.group.DoChan(abs, func() (any, error) {
		return l.load(context.WithoutCancel(ctx), abs)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.logger.Debug().Str("path", abs).Msg("Shared concurrent manifest load")
		}
		return res.Val.(*domain.LoadedManifest), nil
	}
}

func (l *Loader) load(ctx context.Context, path string) (*domain.LoadedManifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, domain.NewLoadError(path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrManifestNotFound, path)
	}

	stamp := domain.FileStamp{Size: info.Size(), ModTime: info.ModTime()}
	loaded := &domain.LoadedManifest{Path: path, Dir: filepath.Dir(path)}
	log := l.logger.WithPath(path)

	if l.cache != nil {
		if m, err := l.cache.Get(ctx, path, stamp); err == nil {
			loaded.Manifest = m
			loaded.FromCache = true
			log.Debug().Msg("Manifest served from cache")
			return loaded, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewLoadError(path, err)
	}

	m, err := l.LoadFromBytes(data, filepath.Ext(path))
	if err != nil {
		return nil, domain.NewLoadError(path, err)
	}
	loaded.Manifest = m

	if l.cache != nil {
		if err := l.cache.Put(ctx, path, stamp, m); err != nil {
			log.Warn().Err(err).Msg("Failed to cache manifest")
		}
	}

	log.Debug().
		Str("name", m.Name()).
		Int64("size", stamp.Size).
		Msg("Loaded manifest")

	return loaded, nil
}

// LoadFromBytes parses a manifest document. ext selects the decoder.
// Invalid UTF-8 is replaced with U+FFFD and a leading byte order mark is dropped.
func (l *Loader) LoadFromBytes(data []byte, ext string) (*pkgjson.Manifest, error) {
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.TrimPrefix(text, utf8BOM)

	var decode func([]byte) (jsonvalue.Value, error)
	switch strings.ToLower(ext) {
	case ".json":
		decode = jsonvalue.Parse
	case ".yaml", ".yml":
		decode = jsonvalue.FromYAML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	// an empty document is an empty manifest
	if strings.TrimSpace(text) == "" {
		return pkgjson.Load(jsonvalue.NewObject())
	}

	v, err := decode([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return pkgjson.Load(v)
}

// LoadDir loads the manifest of the package rooted at dir
func (l *Loader) LoadDir(ctx context.Context, dir string) (*domain.LoadedManifest, error) {
	abs, err := utils.AbsPath(dir)
	if err != nil {
		return nil, domain.NewLoadError(dir, err)
	}
	if path, ok := l.find(abs); ok {
		return l.Load(ctx, path)
	}
	return nil, fmt.Errorf("%w: no %s in %s", ErrManifestNotFound, strings.Join(l.names, " or "), abs)
}

// Closest loads the manifest of the nearest package enclosing start.
// start may be a file or a directory. The search does not leave a
// node_modules directory.
func (l *Loader) Closest(ctx context.Context, start string) (*domain.LoadedManifest, error) {
	abs, err := utils.AbsPath(start)
	if err != nil {
		return nil, domain.NewLoadError(start, err)
	}
	if !utils.IsDir(abs) {
		abs = filepath.Dir(abs)
	}

	for _, dir := range utils.Ancestors(abs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if filepath.Base(dir) == "node_modules" {
			break
		}
		if path, ok := l.find(dir); ok {
			return l.Load(ctx, path)
		}
	}
	return nil, fmt.Errorf("%w: no package encloses %s", ErrManifestNotFound, abs)
}

// find returns the first configured manifest file present in dir
func (l *Loader) find(dir string) (string, bool) {
	for _, name := range l.names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
