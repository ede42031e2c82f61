package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"horse.fit/partyplan/internal/db"
	"horse.fit/partyplan/internal/events"
	"horse.fit/partyplan/internal/funtranslate"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxBodyBytes    = 64 << 10
)

// PartyService is the event-management surface the API exposes. *events.Service satisfies it.
type PartyService interface {
	CreateOwner(ctx context.Context, input events.CreateOwnerInput) (*db.Owner, error)
	CreateEvent(ctx context.Context, ownerID string, input events.EventInput) (*db.Event, error)
	UpdateEvent(ctx context.Context, eventID string, input events.EventInput) (*db.Event, error)
	GetEvent(ctx context.Context, eventID string) (*db.Event, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]db.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]db.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	RequestTranslation(ctx context.Context, eventID string) (*db.Event, error)
	AddGuest(ctx context.Context, eventID, name, email string) (*db.Guest, error)
	ListGuests(ctx context.Context, eventID string) ([]db.Guest, error)
	ConfirmGuest(ctx context.Context, guestID string) (*db.Guest, error)
	CreateItem(ctx context.Context, eventID string, input events.ItemInput) (*db.Item, error)
	UpdateItem(ctx context.Context, itemID string, input events.ItemInput) (*db.Item, error)
	GetItem(ctx context.Context, itemID string) (*db.Item, error)
	ListItems(ctx context.Context, eventID string) ([]db.Item, error)
	ListGuestItems(ctx context.Context, guestID string) ([]db.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	AssignItem(ctx context.Context, itemID, guestID string) (*db.Item, error)
	UnassignItem(ctx context.Context, itemID, guestID string) (*db.Item, error)
	PreviewTranslation(ctx context.Context, text, category, sourceLang string) (funtranslate.Outcome, error)
}

var _ PartyService = (*events.Service)(nil)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CategoryLister lists the fun categories. *funtranslate.Registry satisfies it.
type CategoryLister interface {
	Descriptors() []funtranslate.CategoryDescriptor
}

type Options struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	// MetricsHandler serves GET /metrics; nil selects the default Prometheus registry.
	MetricsHandler http.Handler
}

type Server struct {
	service    PartyService
	health     HealthChecker
	categories CategoryLister
	logger     zerolog.Logger
	opts       Options
}

func NewServer(service PartyService, health HealthChecker, categories CategoryLister, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	return &Server{
		service:    service,
		health:     health,
		categories: categories,
		logger:     logger,
		opts: Options{
			Host:               host,
			Port:               port,
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			ShutdownTimeout:    shutdownTimeout,
			CORSAllowedOrigins: opts.CORSAllowedOrigins,
			MetricsHandler:     metricsHandler,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.service == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.newEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("partyplan api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("partyplan api server stopped")
	return nil
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	allowOrigins := s.opts.CORSAllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(strconv.Itoa(maxBodyBytes/1024) + "K"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(s.opts.MetricsHandler))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/categories", s.handleCategories)
	api.POST("/translations/preview", s.handlePreviewTranslation)

	api.POST("/owners", s.handleCreateOwner)
	api.GET("/owners/:owner_id/events", s.handleListOwnerEvents)
	api.POST("/owners/:owner_id/events", s.handleCreateEvent)

	api.GET("/events", s.handleListEvents)
	api.GET("/events/:event_id", s.handleGetEvent)
	api.PUT("/events/:event_id", s.handleUpdateEvent)
	api.DELETE("/events/:event_id", s.handleDeleteEvent)
	api.POST("/events/:event_id/translate", s.handleRequestTranslation)
	api.GET("/events/:event_id/guests", s.handleListGuests)
	api.POST("/events/:event_id/guests", s.handleAddGuest)
	api.POST("/guests/:guest_id/confirm", s.handleConfirmGuest)

	api.GET("/events/:event_id/items", s.handleListItems)
	api.POST("/events/:event_id/items", s.handleCreateItem)
	api.GET("/items/:item_id", s.handleGetItem)
	api.PUT("/items/:item_id", s.handleUpdateItem)
	api.DELETE("/items/:item_id", s.handleDeleteItem)
	api.GET("/guests/:guest_id/items", s.handleListGuestItems)
	api.PUT("/guests/:guest_id/items/:item_id", s.handleAssignItem)
	api.DELETE("/guests/:guest_id/items/:item_id", s.handleUnassignItem)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled handler error")
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
