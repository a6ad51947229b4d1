package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"claim-risk/internal/scoring"
	"claim-risk/internal/store"
	"claim-risk/internal/util"
)

const requestIDHeader = "X-Request-ID"

// Config defines server dependencies.
type Config struct {
	AnalyzeDelay   time.Duration
	AllowedOrigins []string
	DisableFeed    bool
	// Store is optional; without it decision tallies are not recorded.
	Store *store.Database
	// Random overrides the evaluator's perturbation source.
	Random scoring.RandomSource
}

// Server wires HTTP handlers with the risk evaluator.
type Server struct {
	evaluator      *scoring.Evaluator
	latency        util.Latency
	allowedOrigins []string
	db             *store.Database
	notifier       *PredictionNotifier
	now            func() time.Time
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AnalyzeDelay < 0 {
		return nil, errors.New("analyze delay must not be negative")
	}

	server := &Server{
		evaluator:      scoring.NewEvaluator(cfg.Random),
		latency:        util.Latency(cfg.AnalyzeDelay),
		allowedOrigins: cfg.AllowedOrigins,
		db:             cfg.Store,
		now:            time.Now,
	}
	if !cfg.DisableFeed {
		server.notifier = NewPredictionNotifier()
	}

	logrus.WithFields(logrus.Fields{
		"delay":   cfg.AnalyzeDelay,
		"origins": len(cfg.AllowedOrigins),
		"stats":   cfg.Store != nil,
		"feed":    server.notifier != nil,
	}).Info("claim risk server configured")

	return server, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(requestID(), requestLogger(), gin.CustomRecovery(s.recoverInternal))

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/config", s.handleConfig)
		api.GET("/stats", s.handleStats)
		api.POST("/analyze-claim", s.handleAnalyzeClaim)
		api.GET("/analyze-claim/stream", s.handlePredictionStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"analyze_delay_ms": s.latency.Milliseconds(),
		"stats_enabled":    s.db != nil,
		"feed_enabled":     s.notifier != nil,
		"feed_subscribers": s.notifier.Subscribers(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, StatsResponse{Enabled: false})
		return
	}

	since := strings.TrimSpace(c.Query("since"))
	if since != "" {
		if _, err := time.Parse("2006-01-02", since); err != nil {
			s.renderError(c, http.StatusBadRequest, errors.New("since must be YYYY-MM-DD"))
			return
		}
	}

	totals, err := s.db.Totals()
	if err != nil {
		s.renderInternal(c, err)
		return
	}
	rows, err := s.db.ListTallies(since)
	if err != nil {
		s.renderInternal(c, err)
		return
	}

	days := make([]DayTallyDTO, 0, len(rows))
	for _, row := range rows {
		days = append(days, DayTallyFromModel(row))
	}
	if totals == nil {
		totals = []store.ClassTotal{}
	}
	c.JSON(http.StatusOK, StatsResponse{Enabled: true, Totals: totals, Days: days})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// renderInternal logs the failure and answers with a generic message only.
func (s *Server) renderInternal(c *gin.Context, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	}).Error("request failed")
	s.renderError(c, http.StatusInternalServerError, ErrInternal)
}

func (s *Server) recoverInternal(c *gin.Context, recovered any) {
	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
		"panic":      recovered,
	}).Error("recovered from panic")
	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrInternal.Error()})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := util.StartTimer()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   timer.ElapsedMs(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
