package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/api"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/identity/gotrue"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/oauth"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/watch"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// paths locates persistent state. Empty values use the defaults under ~/.ragdesk.
type paths struct {
	configDir string
	dataDir   string
}

// newBootstrap returns the function the CLI calls once flags are parsed.
func newBootstrap(p paths) cli.BootstrapFunc {
	return func(_ context.Context, opts cli.Options) (*cli.Services, func(), error) {
		return build(p, opts)
	}
}

// build wires adapters into services. The returned cleanup tears down in
// reverse order of construction.
func build(p paths, opts cli.Options) (*cli.Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*cli.Services, func(), error) {
		cleanup()
		return nil, nil, err
	}

	configStore, err := openConfigStore(p.configDir, opts.Ephemeral)
	if err != nil {
		return fail(err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fail(fmt.Errorf("loading settings: %w", err))
	}

	client, err := api.NewClient(api.Config{
		BaseURL:   settings.API.BaseURL,
		RateLimit: settings.API.RateLimit,
	})
	if err != nil {
		return fail(err)
	}

	svc := &cli.Services{
		Settings: settingsService,
		Health:   services.NewHealthService(client),
		Guard:    services.NewGuard(),
	}

	identity, err := newIdentityProvider(settings.Identity)
	if errors.Is(err, errIdentityNotConfigured) {
		// Config and status still work; session commands report the gap.
		logger.Debug("bootstrap: %v", err)
		return svc, cleanup, nil
	}
	if err != nil {
		return fail(err)
	}

	var (
		sessionStore driven.SessionStore
		dbPath       string
	)
	if opts.Ephemeral {
		sessionStore = memory.NewSessionStore()
	} else {
		store, err := sqlite.NewStore(p.dataDir)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing session store: %v", err)
			}
		})
		sessionStore = store.SessionStore()
		dbPath = store.Path()
	}

	holder := services.NewSessionHolder(identity, sessionStore)
	closers = append(closers, holder.Teardown)

	svc.Session = holder
	svc.Collections = services.NewCollectionService(client, holder)
	svc.Documents = services.NewDocumentService(client, holder)
	svc.Jobs = services.NewJobService(client, holder)

	if dbPath != "" {
		watcher, err := watch.NewFSWatcher(dbPath)
		if err != nil {
			// Cross-process sync is best effort.
			logger.Warn("session changes from other processes will not be noticed: %v", err)
		} else {
			closers = append(closers, func() {
				if err := watcher.Close(); err != nil {
					logger.Debug("closing watcher: %v", err)
				}
			})
			svc.Watcher = watcher
		}
	}

	return svc, cleanup, nil
}

func openConfigStore(dir string, ephemeral bool) (driven.ConfigStore, error) {
	if ephemeral {
		return memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

var errIdentityNotConfigured = errors.New("identity provider not configured")

// newIdentityProvider builds the provider selected in settings.
func newIdentityProvider(cfg domain.IdentitySettings) (driven.IdentityProvider, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w (%s)", errIdentityNotConfigured, cfg.Provider)
	}

	switch cfg.Provider {
	case domain.IdentityGoTrue:
		return gotrue.NewProvider(gotrue.Config{
			URL:     cfg.URL,
			AnonKey: cfg.AnonKey,
		})
	case domain.IdentityOAuth:
		return oauth.NewProvider(oauth.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
			RevokeURL:    cfg.RevokeURL,
			Scopes:       cfg.Scopes,
		})
	default:
		return nil, fmt.Errorf("unknown identity provider %q: %w", cfg.Provider, domain.ErrInvalidInput)
	}
}
