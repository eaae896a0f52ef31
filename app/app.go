// Package app wires the configured kv driver, the stores and the
// notification relay into one explicitly owned value.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/vinizap/studydock/config"
	"github.com/vinizap/studydock/kv"
	badgerkv "github.com/vinizap/studydock/kv/badger"
	"github.com/vinizap/studydock/kv/postgres"
	"github.com/vinizap/studydock/notify"
	"github.com/vinizap/studydock/search"
	"github.com/vinizap/studydock/store"
)

type App struct {
	Config   config.Config
	Log      zerolog.Logger
	KV       kv.Store
	Registry *prometheus.Registry
	Folders  *store.FolderStore
	Notes    *store.NoteStore
	Hub      *notify.Hub
	Relay    *notify.Relay
}

// Open connects the kv driver, loads both stores and returns the app. The
// caller must Close it.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := kv.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}
	orphans, err := store.ParseOrphanPolicy(cfg.OrphanPolicy)
	if err != nil {
		return nil, err
	}
	insert, err := store.ParseInsertPosition(cfg.InsertPosition)
	if err != nil {
		return nil, err
	}

	backend, err := openDriver(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	items := kv.NewItems(backend, codec, log, kv.NewMetrics(reg))

	folders := store.NewFolderStore(items, log,
		store.WithInsertPosition(insert),
		store.WithSeedFolders(cfg.SeedFolders...),
	)
	notes := store.NewNoteStore(items, folders, log, store.WithOrphanPolicy(orphans))
	folders.Load(ctx)
	notes.Load(ctx)

	hub := notify.NewHub(log)
	a := &App{
		Config:   cfg,
		Log:      log,
		KV:       backend,
		Registry: reg,
		Folders:  folders,
		Notes:    notes,
		Hub:      hub,
		Relay:    notify.NewRelay(notify.Multi{notify.NewLogDisplay(log), hub}),
	}
	if msg := notes.Err(); msg != "" {
		a.Relay.Error(msg)
	}
	log.Info().Str("driver", cfg.Driver).Str("codec", codec.Name()).
		Int("folders", len(folders.List())).Int("notes", len(notes.List())).Msg("stores loaded")
	return a, nil
}

func openDriver(ctx context.Context, cfg config.Config, log zerolog.Logger) (kv.Store, error) {
	switch cfg.Driver {
	case "memory":
		return kv.NewMemory(), nil
	case "badger":
		bc := badgerkv.DefaultConfig(cfg.DataDir)
		bc.Logger = log
		return badgerkv.Open(bc)
	case "postgres":
		return postgres.Open(ctx, cfg.DatabaseURL, log)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// NewSearch returns a debounced search over the app's stores.
func (a *App) NewSearch() *search.Index {
	return search.NewIndex(a.Notes, a.Folders, a.Config.DebounceDelay)
}

func (a *App) Close() error {
	return a.KV.Close()
}
