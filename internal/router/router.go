package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/medjourney/portal-api/internal/handler"
	accesshandler "github.com/medjourney/portal-api/internal/handler/access"
	analyticshandler "github.com/medjourney/portal-api/internal/handler/analytics"
	authhandler "github.com/medjourney/portal-api/internal/handler/auth"
	documenthandler "github.com/medjourney/portal-api/internal/handler/document"
	messagehandler "github.com/medjourney/portal-api/internal/handler/message"
	planhandler "github.com/medjourney/portal-api/internal/handler/plan"
	profilehandler "github.com/medjourney/portal-api/internal/handler/profile"
	taskhandler "github.com/medjourney/portal-api/internal/handler/task"
	"github.com/medjourney/portal-api/internal/middleware"
	"github.com/medjourney/portal-api/internal/model"
)

type Router struct {
	engine     *gin.Engine
	auth       *middleware.AuthMiddleware
	h          *handler.Handler
	authH      *authhandler.Handler
	profileH   *profilehandler.Handler
	planH      *planhandler.Handler
	taskH      *taskhandler.Handler
	documentH  *documenthandler.Handler
	messageH   *messagehandler.Handler
	analyticsH *analyticshandler.Handler
	accessH    *accesshandler.Handler
	metrics    *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
	Timeout       time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH *authhandler.Handler,
	profileH *profilehandler.Handler,
	planH *planhandler.Handler,
	taskH *taskhandler.Handler,
	documentH *documenthandler.Handler,
	messageH *messagehandler.Handler,
	analyticsH *analyticshandler.Handler,
	accessH *accesshandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	r := &Router{
		engine:     engine,
		auth:       auth,
		h:          h,
		authH:      authH,
		profileH:   profileH,
		planH:      planH,
		taskH:      taskH,
		documentH:  documentH,
		messageH:   messageH,
		analyticsH: analyticsH,
		accessH:    accessH,
		metrics:    initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterProtectedRoutes(rg)
	r.profileH.RegisterRoutes(rg)
	r.planH.RegisterRoutes(rg)
	r.taskH.RegisterRoutes(rg)
	r.documentH.RegisterRoutes(rg)
	r.messageH.RegisterRoutes(rg)
	r.accessH.RegisterRoutes(rg)

	// Dashboard aggregates are provider-side only
	staff := rg.Group("")
	staff.Use(r.auth.RequireStaff())
	r.analyticsH.RegisterRoutes(staff)

	// Staff provisioning is admin-only at the route level; the service
	// enforces it again.
	admin := rg.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.profileH.RegisterAdminRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
