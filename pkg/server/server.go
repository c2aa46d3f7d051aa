// Package server implements the HTTP surface: GET /health,
// POST /evaluate, POST /sample-size-calculation, GET /metrics. It wires
// pkg/experiment.Orchestrator behind pkg/workerpool's bounded-concurrency
// dispatch, validates requests in two layers (gojsonschema shape + hand-
// written semantic checks), and renders results through a NaN/Infinity-
// preserving JSON codec.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avast/epstats/pkg/apierrors"
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/experiment"
	"github.com/avast/epstats/pkg/stats"
	"github.com/avast/epstats/pkg/workerpool"
)

// Server bundles everything one gin.Engine needs: the evaluation pipeline,
// the worker pool that bounds how many evaluations run at once, the metric
// registry, and a logger. It carries no other mutable state.
type Server struct {
	Engine *gin.Engine

	orchestrator *experiment.Orchestrator
	pool         *workerpool.Pool
	metrics      *Metrics
	logger       *zap.Logger
}

// Config selects the knobs New needs beyond the collaborator itself.
type Config struct {
	WorkerPoolSize   int
	MetricsNamespace string
}

// New builds a Server with routes registered but not yet listening.
func New(collaborator data.Collaborator, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		orchestrator: experiment.NewOrchestrator(collaborator),
		pool:         workerpool.New(cfg.WorkerPoolSize),
		metrics:      NewMetrics(cfg.MetricsNamespace),
		logger:       logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(recoveryMiddleware(logger), loggingMiddleware(logger), s.metricsMiddleware())
	engine.GET("/health", s.handleHealth)
	engine.POST("/evaluate", s.handleEvaluate)
	engine.POST("/sample-size-calculation", s.handleSampleSize)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.Engine = engine

	return s
}

// Close releases the worker pool's in-flight job tracking and the
// collaborator the orchestrator was built with.
func (s *Server) Close() error {
	s.pool.Close()
	return s.orchestrator.Collaborator.Close()
}

// metricsMiddleware records one http_requests_total/http_request_duration
// observation per request, after the route is resolved.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, http.StatusText(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, apiError{status: http.StatusUnprocessableEntity, code: "UNREADABLE_BODY", message: err.Error()})
		return
	}
	if err := validateShape(body); err != nil {
		writeError(c, mapError(err))
		return
	}

	var req EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, apiError{status: http.StatusUnprocessableEntity, code: "MALFORMED_JSON", message: err.Error()})
		return
	}

	exp, err := buildExperiment(&req)
	if err != nil {
		writeError(c, mapError(err))
		return
	}

	s.dispatchEvaluate(c, exp)
}

// dispatchEvaluate submits the evaluation to the worker pool and renders its
// outcome: await a free worker, dispatch synchronously, await the result.
func (s *Server) dispatchEvaluate(c *gin.Context, exp *experiment.Experiment) {
	result, err := workerpool.Submit(c.Request.Context(), s.pool, func(ctx context.Context) (*experiment.Result, error) {
		return s.orchestrator.Evaluate(ctx, exp)
	})
	if err != nil {
		kind, _ := apierrors.KindOf(err)
		s.metrics.ObserveEvaluationError(kind.String())
		writeError(c, mapError(err))
		return
	}

	for _, skipped := range result.SkippedChecks {
		if ce, ok := skipped.(*apierrors.CheckError); ok {
			s.metrics.ObserveCheckError(ce.CheckID)
			s.logger.Warn("check_skipped", zap.String("check_id", ce.CheckID), zap.Error(ce))
		}
	}

	c.JSON(http.StatusOK, toEvaluateResponse(result))
}

func (s *Server) handleSampleSize(c *gin.Context) {
	var req SampleSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apiError{status: http.StatusUnprocessableEntity, code: "MALFORMED_JSON", message: err.Error()})
		return
	}

	power := req.Power
	if power == 0 {
		power = 0.8
	}

	var (
		n   float64
		err error
	)
	if req.Std != nil {
		stdTreatment := *req.Std
		if req.StdTreatment != nil {
			stdTreatment = *req.StdTreatment
		}
		n, err = stats.RequiredSampleSize(req.Alpha, power, req.Variants, req.MeanControl, *req.Std, stdTreatment, req.MinimumEffect)
	} else {
		n, err = stats.RequiredSampleSizeBernoulli(req.Alpha, power, req.Variants, req.MeanControl, req.MinimumEffect)
	}
	if err != nil {
		writeError(c, mapError(apierrors.NewValidationError("bad_sample_size_request", err.Error())))
		return
	}

	c.JSON(http.StatusOK, SampleSizeResponse{SampleSizePerVariant: Number(n)})
}
