package main

import (
	"context"
	"fmt"

	"github.com/talentmatch/messaging-service/internal/client/mailer"
	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/messenger"
	"github.com/talentmatch/messaging-service/internal/repository/postgres"
)

// backend is a session together with the resources it was built on.
type backend struct {
	session *messenger.Session
	closers []func()
}

func (b *backend) Close() {
	b.session.Close()
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend builds a session for the profile's store mode. The memory mode
// runs on the seeded demo store.
func openBackend(ctx context.Context, p *Profile, logger messenger.Logger, opts ...messenger.Option) (*backend, error) {
	if p.Store.Mode == modeMemory {
		return openDemoBackend(ctx, identityFlag, logger, opts...)
	}

	identity, err := resolveIdentity(p)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dsn := p.Store.DSN
	if dsn == "" {
		dsn = cfg.Postgres.DSN()
	}

	repo, err := postgres.NewFromDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	b := &backend{closers: []func(){repo.Close}}

	feed, err := postgres.NewFeedFromDSN(dsn, cfg.Feed, repo, logger)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to open change feed: %w", err)
	}
	b.closers = append(b.closers, feed.Close)

	var mail messenger.Mailer
	if cfg.Mailer.URL != "" {
		client := mailer.New(cfg)
		b.closers = append(b.closers, client.Close)
		mail = client
	}

	baseURL := p.App.BaseURL
	if baseURL == "" {
		baseURL = cfg.App.BaseURL
	}

	opts = append([]messenger.Option{messenger.WithAppBaseURL(baseURL)}, opts...)
	b.session = messenger.New(identity, repo, repo, feed, mail, logger, opts...)

	return b, nil
}
