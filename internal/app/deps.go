package app

import (
	"log/slog"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/cooldown"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/session"
	"github.com/nhle/taskflow/internal/store"
)

// Deps are the long-lived services the TUI runs on. The CLI builds them
// once and hands them to New.
type Deps struct {
	Client      *api.Client
	Uploader    *api.Uploader
	Session     *session.Session
	Store       store.Store
	Center      *notify.Center
	Tracker     *cooldown.Tracker
	Config      *model.AppConfig
	DeviceToken string
	Logger      *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Config == nil {
		d.Config = model.DefaultAppConfig()
	}
	return d
}
