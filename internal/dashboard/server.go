// Package dashboard exposes the latest scrape snapshot over HTTP: the raw
// JSON the frontend polls, a health probe, and a small status API.
package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
)

// Server hosts the Gin-powered snapshot endpoint for TradeWatch.
type Server struct {
	cfg        config.DashboardConfig
	log        *logger.Log
	httpServer *http.Server
	started    time.Time

	mu       sync.RWMutex
	snapshot *models.Snapshot
	runs     int
}

// NewServer constructs a dashboard server when the dashboard feature is
// enabled. When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, log *logger.Log) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	return &Server{
		cfg:     cfg,
		log:     log,
		started: time.Now(),
	}, nil
}

// SetSnapshot publishes the result of a scrape pass to the dashboard.
func (s *Server) SetSnapshot(snapshot *models.Snapshot) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.snapshot = snapshot
	s.runs++
	s.mu.Unlock()
}

// Run starts the dashboard HTTP server and blocks until the provided context
// is cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context, appName string) error {
	if s == nil {
		return nil
	}

	router, err := s.buildRouter(appName)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.WithComponent("dashboard").WithFields(logger.Fields{"address": s.cfg.Address}).Info("dashboard started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter(appName string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	// Allow running behind load balancers by trusting no proxies by
	// default; override via GIN_TRUSTED_PROXIES if needed.
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.GET("/healthz", func(c *gin.Context) {
		s.mu.RLock()
		runs := s.runs
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"app":            appName,
			"uptime_seconds": int(time.Since(s.started).Seconds()),
			"runs":           runs,
		})
	})

	router.GET("/competition_data.json", func(c *gin.Context) {
		s.mu.RLock()
		snapshot := s.snapshot
		s.mu.RUnlock()
		if snapshot == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no scrape pass has completed yet"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})

	router.GET("/api/status", func(c *gin.Context) {
		s.mu.RLock()
		snapshot := s.snapshot
		runs := s.runs
		s.mu.RUnlock()

		status := gin.H{
			"app":  appName,
			"runs": runs,
		}
		if snapshot != nil {
			status["run_id"] = snapshot.RunID
			status["competition"] = snapshot.Competition
			status["scraped_at"] = snapshot.ScrapedAt.Format(time.RFC3339Nano)
			status["competitors"] = len(snapshot.Competitors)
			status["feed_items"] = len(snapshot.ActivityFeed)
		}
		c.JSON(http.StatusOK, status)
	})

	return router, nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
