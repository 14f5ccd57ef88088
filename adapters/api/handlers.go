package api

import (
	"net/http"
	"strconv"
	"time"

	"gostatlab/app"
	"gostatlab/domain/core"
	"gostatlab/domain/dataset"
	"gostatlab/domain/distributions"
	"gostatlab/domain/estimation"
	"gostatlab/domain/sampling"
	"gostatlab/internal/errors"
	"gostatlab/internal/report"

	"github.com/gin-gonic/gin"
)

// DefaultReportLimit caps GET /reports when no limit is given.
const DefaultReportLimit = 50

type sampleRequest struct {
	Categories []string `json:"categories" binding:"required"`
	Counts     []int64  `json:"counts" binding:"required"`
}

type intervalRequest struct {
	P      *float64 `json:"p" binding:"required"`
	N      int64    `json:"n"`
	Z      float64  `json:"z"`
	Policy string   `json:"policy"`
}

type containmentRequest struct {
	Reference *float64          `json:"reference" binding:"required"`
	Interval  sampling.Interval `json:"interval"`
}

type batchRequest struct {
	Categories []string  `json:"categories" binding:"required"`
	Samples    [][]int64 `json:"samples"`
}

type estimateRequest struct {
	Label      string                        `json:"label"`
	Headers    []string                      `json:"headers" binding:"required"`
	Rows       [][]string                    `json:"rows"`
	Columns    []string                      `json:"columns"`
	References []sampling.CategoryProportion `json:"references"`
	Sample     int                           `json:"sample"`
	Persist    bool                          `json:"persist"`
}

type tableRequest struct {
	Headers []string   `json:"headers" binding:"required"`
	Rows    [][]string `json:"rows"`
}

type valuesRequest struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values" binding:"required"`
	Alpha  float64   `json:"alpha"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handleProportions(c *gin.Context) {
	var req sampleRequest
	if !s.bind(c, &req) {
		return
	}
	sample, err := sampling.NewSample(req.Categories, req.Counts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	props, err := s.estimation.Proportions(sample)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"n": sample.Size(), "proportions": props})
}

func (s *Server) handleInterval(c *gin.Context) {
	var req intervalRequest
	if !s.bind(c, &req) {
		return
	}
	policy := sampling.PolicyConfidence
	if req.Policy != "" {
		p, err := sampling.ParsePolicy(req.Policy)
		if err != nil {
			s.respondError(c, err)
			return
		}
		policy = p
	}
	z := req.Z
	if z == 0 {
		z = s.estimation.Options().Z
	}
	iv, err := sampling.ComputeInterval(*req.P, req.N, z, policy)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policy": policy, "z": z, "interval": iv})
}

func (s *Server) handleContainment(c *gin.Context) {
	var req containmentRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := sampling.ClassifyContainment(*req.Reference, req.Interval)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"containment": result})
}

func (s *Server) handleBatch(c *gin.Context) {
	var req batchRequest
	if !s.bind(c, &req) {
		return
	}
	samples := make([]sampling.Sample, 0, len(req.Samples))
	for i, counts := range req.Samples {
		sample, err := sampling.NewSample(req.Categories, counts)
		if err != nil {
			s.respondError(c, errors.Wrapf(err, "sample %d", i))
			return
		}
		samples = append(samples, sample)
	}
	result, err := s.estimation.EvaluateSamples(c.Request.Context(), samples)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEstimate(c *gin.Context) {
	var req estimateRequest
	if !s.bind(c, &req) {
		return
	}
	table, err := dataset.NewTable(req.Headers, req.Rows)
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.estimation.Estimate(c.Request.Context(), app.EstimateRequest{
		Label:      req.Label,
		Table:      table,
		Columns:    req.Columns,
		References: sampling.Proportions(req.References),
		Sample:     req.Sample,
		Persist:    req.Persist,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	status := http.StatusOK
	if req.Persist {
		status = http.StatusCreated
	}
	s.renderReport(c, status, result)
}

func (s *Server) handleDescribe(c *gin.Context) {
	var req valuesRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.descriptive.DescribeValues(req.Name, req.Values)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleNormality(c *gin.Context) {
	var req valuesRequest
	if !s.bind(c, &req) {
		return
	}
	result, err := s.descriptive.Normality(req.Name, req.Values, req.Alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDistributionNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"distributions": distributions.Names()})
}

// handleDistribution reads law parameters from the query string, e.g.
// /distributions/binomial?n=20&p=0.4.
func (s *Server) handleDistribution(c *gin.Context) {
	params := distributions.Params{}
	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			s.respondError(c, errors.InvalidInput("parameter "+key+" must be a number"))
			return
		}
		params[key] = v
	}
	result, err := s.descriptive.Distribution(c.Param("name"), params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleElections(c *gin.Context) {
	var req tableRequest
	if !s.bind(c, &req) {
		return
	}
	table, err := dataset.NewTable(req.Headers, req.Rows)
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.elections.Analyze(table)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListReports(c *gin.Context) {
	limit := DefaultReportLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(c, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	summaries, err := s.estimation.ListReports(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": summaries})
}

func (s *Server) handleGetReport(c *gin.Context) {
	id, err := core.ParseReportID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	result, err := s.estimation.GetReport(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.renderReport(c, http.StatusOK, result)
}

// renderReport answers with JSON, or markdown / HTML when ?format asks for it.
func (s *Server) renderReport(c *gin.Context, status int, r *estimation.Report) {
	switch c.Query("format") {
	case "markdown", "md":
		c.Data(status, "text/markdown; charset=utf-8", []byte(report.Markdown(r)))
	case "html":
		c.Data(status, "text/html; charset=utf-8", report.HTML(r))
	default:
		c.JSON(status, r)
	}
}
