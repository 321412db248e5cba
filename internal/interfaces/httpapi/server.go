package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cryptotracker/internal/application/service"
	"cryptotracker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Deps are the state containers exposed to UI clients.
type Deps struct {
	Table     *domain.PriceTable
	Alerts    *service.AlertBook
	Portfolio *service.Portfolio
	Settings  *service.SettingsService
}

// Server is the UI bridge: a JSON API over the record services plus a
// websocket that pushes price table events.
type Server struct {
	deps   Deps
	engine *gin.Engine
	hub    *Hub
	start  time.Time
}

func New(deps Deps, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		deps:   deps,
		engine: gin.New(),
		hub:    NewHub(deps.Table),
		start:  time.Now(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(), cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/status", s.getStatus)

	api.GET("/prices", s.getPrices)
	api.GET("/prices/:id", s.getPrice)

	api.GET("/alerts", s.listAlerts)
	api.POST("/alerts", s.addAlert)
	api.DELETE("/alerts/triggered", s.clearTriggered)
	api.DELETE("/alerts/:id", s.removeAlert)
	api.POST("/alerts/:id/toggle", s.toggleAlert)

	api.GET("/holdings", s.listHoldings)
	api.POST("/holdings", s.addHolding)
	api.PATCH("/holdings/:id", s.updateHolding)
	api.DELETE("/holdings/:id", s.removeHolding)
	api.GET("/portfolio", s.getPortfolio)

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.putSettings)

	s.engine.GET("/ws", s.hub.ServeWS)
}

// Handler exposes the routes for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http api stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(started)).
			Msg("http request")
	}
}

// cors allows local UI origins only.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
