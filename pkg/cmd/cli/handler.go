package cli

import "github.com/nsyszr/quakedb/config"

type Handler struct {
	Migration *MigrateHandler
	Import    *ImportHandler
	Watch     *WatchHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
		Import:    newImportHandler(c),
		Watch:     newWatchHandler(c),
	}
}
