package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/quantmind-br/pkgjson-go/internal/cache"
	"github.com/quantmind-br/pkgjson-go/internal/config"
	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/internal/loader"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// Service resolves requests against package manifests found on disk
type Service struct {
	config     *config.Config
	loader     domain.ManifestLoader
	store      *cache.ManifestStore
	persistent *cache.BadgerCache
	logger     *utils.Logger
	progress   io.Writer
}

// ServiceOptions contains options for creating a service
type ServiceOptions struct {
	Config  *config.Config
	Verbose bool
	// NoCache disables the persistent cache for this run
	NoCache bool
	// Loader replaces the cached disk loader
	Loader domain.ManifestLoader
	Logger *utils.Logger
	// Progress receives the audit progress bar. Nil hides it.
	Progress io.Writer
}

// NewService creates a new service with the given configuration
func NewService(opts ServiceOptions) (*Service, error) {
	cfg := opts.Config

	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logLevel := "info"
		logFormat := "pretty"
		if cfg.Logging.Level != "" {
			logLevel = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			logFormat = cfg.Logging.Format
		}
		if opts.Verbose {
			logLevel = "debug"
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   logLevel,
			Format:  logFormat,
			Verbose: opts.Verbose,
		})
	}

	s := &Service{
		config:   cfg,
		loader:   opts.Loader,
		logger:   logger,
		progress: opts.Progress,
	}
	if s.loader != nil {
		return s, nil
	}

	memory, err := cache.NewMemoryManifestCache(cfg.Cache.MemoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	var persistent domain.Cache
	if cfg.Cache.Enabled && !opts.NoCache {
		bc, err := cache.NewBadgerCache(cache.Options{
			Directory:   utils.ExpandPath(cfg.Cache.Directory),
			LockTimeout: cfg.Cache.LockTimeout,
		})
		if err != nil {
			// Another process may hold the cache; resolve without it.
			logger.Warn().Err(err).Str("directory", cfg.Cache.Directory).Msg("Persistent cache unavailable")
		} else {
			s.persistent = bc
			persistent = bc
		}
	}

	store, err := cache.NewManifestStore(memory, persistent, cache.StoreOptions{
		TTL:    cfg.Cache.TTL,
		Logger: logger,
	})
	if err != nil {
		if s.persistent != nil {
			_ = s.persistent.Close()
		}
		return nil, fmt.Errorf("failed to create manifest store: %w", err)
	}
	s.store = store

	s.loader = loader.NewLoader(loader.Options{
		ManifestNames: cfg.Resolution.ManifestNames,
		Cache:         store,
		Logger:        logger,
	})
	return s, nil
}

// Close releases the caches
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// PersistentCache returns the disk cache, or nil when it is not in use
func (s *Service) PersistentCache() *cache.BadgerCache {
	return s.persistent
}

// Conditions builds the active condition set. Explicit names win over the
// configured import or require defaults.
func (s *Service) Conditions(names []string, require bool) pkgjson.Conditions {
	if len(names) > 0 {
		return pkgjson.NewConditions(names...)
	}
	if require {
		return pkgjson.NewConditions(s.config.Resolution.RequireConditions...)
	}
	return pkgjson.NewConditions(s.config.Resolution.Conditions...)
}

// Resolve resolves request against the package that contains dir
func (s *Service) Resolve(ctx context.Context, dir, request string, conditions pkgjson.Conditions) (*domain.Resolution, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, domain.ErrEmptyRequest
	}

	loaded, err := s.loader.Closest(ctx, dir)
	if err != nil {
		return nil, err
	}
	return s.resolveIn(loaded, request, conditions)
}

func (s *Service) resolveIn(loaded *domain.LoadedManifest, request string, conditions pkgjson.Conditions) (*domain.Resolution, error) {
	startTime := time.Now()
	kind := DetectRequest(request)
	m := loaded.Manifest

	var target string
	var err error
	switch kind {
	case domain.RequestImport:
		target, err = pkgjson.ResolveImport(m, request, conditions)
	case domain.RequestSubpath:
		target, err = pkgjson.ResolveExport(m, request, conditions)
	default:
		target, err = pkgjson.ResolveSelf(m, request, conditions)
	}

	log := s.logger.WithPackage(loaded.Dir).WithSpecifier(request).Debug().
		Str("name", m.Name()).
		Str("kind", kind.String()).
		Str("conditions", conditions.String()).
		Dur("duration", time.Since(startTime))
	if err != nil {
		log.Err(err).Msg("Resolution failed")
		return nil, err
	}
	log.Str("target", target).Msg("Resolved")

	res := &domain.Resolution{
		PackageDir:   loaded.Dir,
		ManifestPath: loaded.Path,
		PackageName:  m.Name(),
		Request:      request,
		Kind:         kind,
		Conditions:   conditions.Names(),
		Target:       target,
		Legacy:       kind == domain.RequestSubpath && !m.HasExports(),
	}
	res.Path = targetPath(loaded.Dir, target, res.Legacy)
	return res, nil
}

// Inspect loads the manifest of the package that contains dir
func (s *Service) Inspect(ctx context.Context, dir string) (*domain.LoadedManifest, error) {
	return s.loader.Closest(ctx, dir)
}

// IsResolutionError reports whether err is a resolution failure rather than
// a problem loading the manifest
func IsResolutionError(err error) bool {
	var rerr *pkgjson.ResolutionError
	return errors.As(err, &rerr)
}
