package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nats "github.com/nats-io/nats.go"
	"github.com/nsyszr/quakedb/config"
	"github.com/nsyszr/quakedb/pkg/api"
	"github.com/nsyszr/quakedb/pkg/events"
	"github.com/nsyszr/quakedb/pkg/events/natsio"
	"github.com/nsyszr/quakedb/pkg/metrics"
	"github.com/nsyszr/quakedb/pkg/quake"
	"github.com/nsyszr/quakedb/pkg/storage"
	"github.com/nsyszr/quakedb/pkg/storage/memory"
	"github.com/nsyszr/quakedb/pkg/storage/postgres"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type webServer struct {
	c *config.Config

	quitCh chan bool
	doneCh chan bool

	store storage.Interface
	nc    *nats.Conn
	svc   *quake.Service
}

// SetupLogging applies the configured level to the global logger
func SetupLogging(c *config.Config) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// OpenStore returns the store selected by DATABASE_URL. A PostgreSQL schema is
// migrated before it is used.
func OpenStore(c *config.Config) (storage.Interface, error) {
	if c.UseMemoryStore() {
		log.Warn("Using the in-memory store, records are lost on shutdown")
		return memory.NewStore(), nil
	}

	conn, err := postgres.Connect(c.DatabaseURL, c.DBConnectTimeout, c.DBMaxOpenConns)
	if err != nil {
		return nil, err
	}

	n, err := postgres.Migrate(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.WithField("applied", n).Info("Database schema is up to date")

	return postgres.NewStore(conn), nil
}

func newWebServer(c *config.Config) (*webServer, error) {
	s := &webServer{
		c:      c,
		quitCh: make(chan bool),
		doneCh: make(chan bool),
	}

	store, err := OpenStore(c)
	if err != nil {
		return nil, err
	}
	s.store = store

	var pub events.Publisher
	if c.EventsEnabled() {
		nc, err := nats.Connect(c.NATSServerURL,
			nats.DrainTimeout(c.ShutdownTimeout),
			nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
				log.Error("server: NATS error: ", err)
			}),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("server: disconnected from NATS: ", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("server: reconnected to NATS ", nc.ConnectedUrl())
			}))
		if err != nil {
			store.Close()
			return nil, errors.Wrap(err, "failed to connect to NATS")
		}
		s.nc = nc
		pub = natsio.NewPublisher(nc)
	}

	s.svc = quake.NewService(store, pub, metrics.New())

	return s, nil
}

func (s *webServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	renderer, err := api.NewRenderer()
	if err != nil {
		log.Fatal("server: ", err)
	}
	e.Renderer = renderer

	// Register page and API endpoints
	handler := api.NewHandler(s.nc, s.svc)
	handler.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		log.WithFields(log.Fields{
			"host":    s.c.BindHost,
			"port":    s.c.BindPort,
			"version": s.c.BuildVersion,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.c.BindHost, s.c.BindPort)); err != nil {
			log.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), s.c.ShutdownTimeout)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server: ", err)
	}

	// We've done!
	s.doneCh <- true
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			reqSize, perr := strconv.ParseInt(req.Header.Get(echo.HeaderContentLength), 10, 0)
			if perr != nil {
				reqSize = 0
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			entry := log.WithFields(log.Fields{
				"remote_ip":     c.RealIP(),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency_human": stop.Sub(start).String(),
			})
			if res.Status >= http.StatusInternalServerError {
				entry.Errorf("%s %s %d", req.Method, req.RequestURI, res.Status)
			} else {
				entry.Infof("%s %s %d", req.Method, req.RequestURI, res.Status)
			}

			return err
		}
	}
}

func (s *webServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the Serve() routine
	s.quitCh <- true

	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(s.c.ShutdownTimeout):
		log.Error("Shutdown server failed")
	}

	if err := s.store.Close(); err != nil {
		log.Error("server: failed to close store: ", err)
	}
}

// RunServeWeb starts the web server and blocks until SIGINT or SIGTERM
func RunServeWeb(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		SetupLogging(c)

		if err := c.Validate(); err != nil {
			log.Error("invalid configuration: ", err)
			os.Exit(2)
		}

		s, err := newWebServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
