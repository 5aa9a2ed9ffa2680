package commands

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storywatch-backend/lib/scrapers/royalroad"
	"storywatch-backend/services/notify"
	"storywatch-backend/services/tracker"
	"storywatch-backend/services/tracker/store"
	"storywatch-backend/services/tracker/store/db"
)

// App holds everything a command needs, it is built once per invocation.
type App struct {
	Config  Config
	DB      *sql.DB
	Store   store.Store
	Service tracker.Service

	closers []func() error
}

func newSink(ctx context.Context, cfg NotifyConfig) (tracker.Sink, []func() error, error) {
	var sinks notify.Multi
	var closers []func() error

	if cfg.Feed != nil {
		feed, err := notify.NewFeedSink(*cfg.Feed)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, feed)
	}
	if cfg.Email != nil {
		mail, err := notify.NewEmailSink(*cfg.Email)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, mail)
	}
	if cfg.Redis != nil {
		queue, err := notify.NewRedisSink(ctx, *cfg.Redis)
		if err != nil {
			return nil, closers, err
		}
		sinks = append(sinks, queue)
		closers = append(closers, queue.Close)
	}
	if cfg.Log || len(sinks) == 0 {
		sinks = append(sinks, notify.LogSink{})
	}

	if len(sinks) == 1 {
		return sinks[0], closers, nil
	}
	return sinks, closers, nil
}

func NewApp(ctx context.Context, cfg Config) (*App, error) {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:  cfg,
		DB:      database,
		Store:   store.NewStore(database),
		closers: []func() error{database.Close},
	}

	client, err := royalroad.NewClient(royalroad.ClientOptions{
		BaseUrl: cfg.Scraper.BaseUrl,
		Timeout: time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	sink, closers, err := newSink(ctx, cfg.Notify)
	app.closers = append(app.closers, closers...)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Service = tracker.NewService(tracker.Options{
		Fetcher:     client,
		Stories:     app.Store,
		Leaderboard: app.Store,
		Registry:    app.Store,
		State:       app.Store,
		Sink:        sink,
		Workers:     cfg.Workers,
	})
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
