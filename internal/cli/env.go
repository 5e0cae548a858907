package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/app"
	"github.com/nhle/taskflow/internal/cooldown"
	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/session"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/telemetry"
)

// errSignedOut is returned by commands that need a stored session.
var errSignedOut = errors.New("not signed in; run 'taskflow login' first")

// newSecrets opens the secret store. Tests swap it for an in-memory one.
var newSecrets = func() credential.Store { return credential.Keyring{} }

// env holds the services one command invocation runs on.
type env struct {
	cfg         *model.AppConfig
	providers   *telemetry.Providers
	logger      *slog.Logger
	store       *store.SQLiteStore
	session     *session.Session
	client      *api.Client
	uploader    *api.Uploader
	center      *notify.Center
	tracker     *cooldown.Tracker
	deviceToken string
}

// openEnv loads the configuration and builds every service. Close
// releases them.
func openEnv(ctx context.Context) (*env, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	providers, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}
	logger := providers.Logger
	slog.SetDefault(logger)

	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, err
	}

	secrets := newSecrets()
	sess := session.New(secrets, logger)
	if err := sess.Load(); err != nil {
		logger.Warn("restoring session", slog.Any("error", err))
	}
	deviceToken, err := credential.DeviceID(secrets)
	if err != nil {
		logger.Warn("resolving device id", slog.Any("error", err))
	}

	client := api.NewClient(cfg.API.BaseURL, sess,
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithMaxRetries(cfg.API.MaxRetries),
		api.WithLogger(logger),
		api.WithMetrics(providers.Metrics),
	)
	userID := func() int64 { return sess.User().ID }
	center := notify.NewCenter(client, st, userID, logger)
	providers.Metrics.SetUnreadFunc(func() int64 { return int64(center.Unread()) })

	return &env{
		cfg:         cfg,
		providers:   providers,
		logger:      logger,
		store:       st,
		session:     sess,
		client:      client,
		uploader:    api.NewUploader(cfg.Upload.URL, func() string { return sess.User().Name }, logger),
		center:      center,
		tracker:     cooldown.NewTracker(st),
		deviceToken: deviceToken,
	}, nil
}

// Close closes the store and flushes telemetry.
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store", slog.Any("error", err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.providers.Shutdown(ctx)
}

// requireSession fails with errSignedOut when no token is stored.
func (e *env) requireSession() error {
	if !e.session.SignedIn() {
		return errSignedOut
	}
	return nil
}

func (e *env) deps() app.Deps {
	return app.Deps{
		Client:      e.client,
		Uploader:    e.uploader,
		Session:     e.session,
		Store:       e.store,
		Center:      e.center,
		Tracker:     e.tracker,
		Config:      e.cfg,
		DeviceToken: e.deviceToken,
		Logger:      e.logger,
	}
}

// signedIn opens the environment and checks for a session, the common
// prologue of every command that talks to the backend.
func signedIn(ctx context.Context) (*env, error) {
	e, err := openEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireSession(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}
