package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/Domenick1991/barberbooking/api"
	"github.com/Domenick1991/barberbooking/config"
	"github.com/Domenick1991/barberbooking/internal/logger"
	"github.com/Domenick1991/barberbooking/internal/metrics"
	"github.com/Domenick1991/barberbooking/internal/service/availability"
	"github.com/Domenick1991/barberbooking/internal/service/reschedule"
)

const swaggerDocPath = "/docs/scheduling.swagger.json"

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Dependencies struct {
	Slots      availability.SlotUseCase
	Reschedule reschedule.RescheduleUseCase
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Health     []HealthCheck
}

// Run serves the scheduling API and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, deps Dependencies) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	deps.Logger.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestID(), logger.GinMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/healthz", healthHandler(deps.Health))

	v1 := r.Group("/api/v1")
	api.NewSlotHandler(deps.Slots).Register(v1.Group("/slots"))
	api.NewRescheduleHandler(deps.Reschedule).Register(v1.Group("/bookings"))

	if cfg.HTTP.SwaggerDir != "" {
		r.StaticFile(swaggerDocPath, filepath.Join(cfg.HTTP.SwaggerDir, "scheduling.swagger.json"))
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerDocPath))))
	}
	return r
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				failed[hc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
