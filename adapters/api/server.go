// Package api exposes the estimation and descriptive services over HTTP.
package api

import (
	"net/http"
	"time"

	"gostatlab/app"
	"gostatlab/internal"
	"gostatlab/internal/errors"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP routes onto a gin engine
type Server struct {
	router      *gin.Engine
	estimation  *app.EstimationService
	descriptive *app.DescriptiveService
	elections   *app.ElectionService
	logger      *internal.Logger
}

// NewServer creates a server with every route registered under /api/v1.
func NewServer(estimation *app.EstimationService, descriptive *app.DescriptiveService, elections *app.ElectionService) *Server {
	s := &Server{
		router:      gin.New(),
		estimation:  estimation,
		descriptive: descriptive,
		elections:   elections,
		logger:      internal.DefaultLogger.WithComponent("API"),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")

	v1.GET("/health", s.handleHealth)

	v1.POST("/proportions", s.handleProportions)
	v1.POST("/intervals", s.handleInterval)
	v1.POST("/containment", s.handleContainment)
	v1.POST("/batch", s.handleBatch)
	v1.POST("/estimate", s.handleEstimate)

	v1.POST("/describe", s.handleDescribe)
	v1.POST("/normality", s.handleNormality)
	v1.GET("/distributions", s.handleDistributionNames)
	v1.GET("/distributions/:name", s.handleDistribution)
	v1.POST("/elections", s.handleElections)

	v1.GET("/reports", s.handleListReports)
	v1.GET("/reports/:id", s.handleGetReport)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("Listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// respondError writes err as {"error", "code"} with the status its code maps to.
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

// bind decodes the JSON body into req, answering 400 on failure.
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid request body")))
		return false
	}
	return true
}
