// Package cli implements the basket command line client.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/dukerupert/basket/internal/config"
	"github.com/dukerupert/basket/internal/groups"
	"github.com/dukerupert/basket/internal/history"
	"github.com/dukerupert/basket/internal/listsync"
	"github.com/dukerupert/basket/internal/remote"
	"github.com/dukerupert/basket/internal/session"
)

// App wires the session, the remote client and the controllers for one
// installation.
type App struct {
	Config  *config.Client
	Session *session.Store
	Remote  *remote.Client
	Groups  *groups.Controller
	List    *listsync.Controller
	History *history.Maintainer
	logger  *slog.Logger
}

func NewApp(cfg *config.Client, logger *slog.Logger) (*App, error) {
	sess, err := session.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	rc := remote.New(cfg.ServerURL, cfg.Timeout, logger)
	return &App{
		Config:  cfg,
		Session: sess,
		Remote:  rc,
		Groups:  groups.NewController(rc, sess, logger),
		List:    listsync.NewController(rc, sess, logger),
		History: history.NewMaintainer(rc, sess, logger),
		logger:  logger,
	}, nil
}
