package api

import (
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/nsyszr/quakedb/pkg/quake"
	log "github.com/sirupsen/logrus"
)

// Handler contains all properties to serve the web pages and the API
type Handler struct {
	nc  *nats.Conn
	svc *quake.Service
}

// NewHandler create a new handler. nc may be nil, the realtime events are not
// served then.
func NewHandler(nc *nats.Conn, svc *quake.Service) *Handler {
	return &Handler{
		nc:  nc,
		svc: svc,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register page routes")
	e.GET("/", h.handleIndex)
	e.GET("/search", h.handleSearchForm)
	e.POST("/search", h.handleSearch)
	e.GET("/delete_entries", h.handleDeleteForm)
	e.POST("/delete_entries", h.handleDeleteEntries)
	e.GET("/create_entry", h.handleCreateForm)
	e.POST("/create_entry", h.handleCreateEntry)
	e.GET("/modify_entry", h.handleModifyForm)
	e.POST("/modify_entry", h.handleModifyEntry)
	e.GET("/display_entries", h.handleDisplayEntries)
	e.GET("/uploadcsv", h.handleUploadForm)
	e.POST("/uploadcsvresults", h.handleUploadResults)

	log.Debug("Register API routes")
	api := e.Group("/api/v1")
	api.GET("/earthquakes", h.handleFetchEarthquakes)
	api.POST("/earthquakes", h.handleCreateEarthquake)
	api.GET("/earthquakes/search", h.handleSearchEarthquakes)
	api.POST("/earthquakes/import", h.handleImportEarthquakes)
	api.GET("/earthquakes/:id", h.handleGetEarthquakeByID)
	api.PUT("/earthquakes/:id", h.handleUpdateEarthquake)
	api.DELETE("/earthquakes/:id", h.handleDeleteEarthquake)

	if h.nc != nil {
		api.Any("/realtime-events", h.realtimeEventsHandler())
	}
}
