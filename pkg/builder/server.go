package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/kode4food/argyll/worker"
	"github.com/kode4food/argyll/worker/internal/config"
	"github.com/kode4food/argyll/worker/pkg/api"
	"github.com/kode4food/argyll/worker/pkg/log"
)

// Server hosts the execution endpoint for a single step. Invocations are
// handled concurrently; the only state shared between requests is the
// immutable step definition and the handler configuration
type Server struct {
	client *Client
	step   *api.Step
	handle StepHandler
	tasks  *taskPool
}

// NewServer creates a step server for an already-built step definition.
// taskLimit bounds the detached async task pool
func NewServer(
	client *Client, step *api.Step, handle StepHandler, taskLimit int,
) *Server {
	return &Server{
		client: client,
		step:   step,
		handle: handle,
		tasks:  newTaskPool(taskLimit),
	}
}

// SetupRoutes configures and returns the HTTP router for the step server
func (s *Server) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/"+string(s.step.ID), s.handleInvoke)

	return router
}

// ListenAndServe begins accepting execution requests on the given address.
// It must only be called after registration has completed, so the engine
// never routes work to an endpoint it does not know about
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.SetupRoutes(),
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:  "healthy",
		Service: s.step.ID,
	})
}

func (s *Server) handleInvoke(c *gin.Context) {
	var req api.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: "Invalid JSON",
		})
		return
	}

	flowID, _ := api.GetMetaString[api.FlowID](req.Metadata, api.MetaFlowID)

	sc := &StepContext{
		Context:  c.Request.Context(),
		Client:   s.client.Flow(flowID),
		StepID:   s.step.ID,
		Metadata: req.Metadata,
		tasks:    s.tasks,
	}

	result, httpErr := executeWithRecovery(sc, s.handle, req.Arguments)
	if httpErr != nil {
		metricInvocations.WithLabelValues(
			string(s.step.ID), outcomeError,
		).Inc()
		c.JSON(httpErr.StatusCode, api.ErrorResponse{
			Error: httpErr.Message,
		})
		return
	}

	outcome := outcomeSuccess
	if !result.Success {
		outcome = outcomeFailure
	}
	metricInvocations.WithLabelValues(string(s.step.ID), outcome).Inc()

	c.JSON(http.StatusOK, result)
}

// executeWithRecovery runs the handler, converting a panic into a failed
// StepResult and passing a handler-raised *HTTPError through for the caller
// to propagate as the response status. The server itself never crashes on a
// handler failure
func executeWithRecovery(
	sc *StepContext, handle StepHandler, args api.Args,
) (result api.StepResult, httpErr *HTTPError) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Step handler panicked",
				log.StepID(sc.StepID),
				slog.String("panic", fmt.Sprintf("%v", r)))
			metricInvocations.WithLabelValues(
				string(sc.StepID), outcomePanic,
			).Inc()
			result = *api.NewResult().WithError(
				fmt.Errorf("%w: %v", ErrHandlerPanic, r),
			)
			httpErr = nil
		}
	}()

	var err error
	result, err = handle(sc, args)
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) {
			return api.StepResult{}, he
		}
		return *api.NewResult().WithError(err), nil
	}
	return result, nil
}

// configureLogging installs the worker's JSON logger as the process default
// at the configured level
func configureLogging(cfg *config.Config) {
	level := log.Level(cfg.LogLevel)
	logger := log.NewWithLevel(app.Name, os.Getenv("ENV"), app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)
}

// setupStepServer registers the step and then serves it, filling in the
// local endpoint and health check from the worker configuration
func setupStepServer(s *Step, handle StepHandler) error {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	configureLogging(cfg)

	endpoint := fmt.Sprintf("http://%s:%d/%s",
		cfg.StepHostname, cfg.StepPort, s.id)
	healthEndpoint := fmt.Sprintf("http://%s:%d/health",
		cfg.StepHostname, cfg.StepPort)

	s = s.WithEndpoint(endpoint).WithHealthCheck(healthEndpoint)

	step, err := s.Build()
	if err != nil {
		return err
	}

	if err := registerWithRetry(
		context.Background(), s.client, step, s.dirty,
	); err != nil {
		return err
	}

	srv := NewServer(s.client, step, handle, cfg.AsyncTaskLimit)

	slog.Info("Step server starting",
		slog.String("step_name", string(step.Name)),
		log.StepID(step.ID),
		slog.Int("port", cfg.StepPort),
		log.Endpoint(endpoint))

	return srv.ListenAndServe(fmt.Sprintf(":%d", cfg.StepPort))
}
