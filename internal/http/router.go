package http

import (
	"time"

	"github.com/geocoder89/vita/internal/auth"
	"github.com/geocoder89/vita/internal/config"
	"github.com/geocoder89/vita/internal/http/handlers"
	"github.com/geocoder89/vita/internal/http/middlewares"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/ratelimit"
	"github.com/geocoder89/vita/internal/repo"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "vita-api"

type Deps struct {
	Cfg   config.Config
	Store *repo.Store
	JWT   *auth.Manager
	Prom  *observability.Prom

	// RateStore defaults to an in-process counter.
	RateStore ratelimit.Store

	// Ready lists extra readiness checks next to the store, e.g. redis.
	Ready map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if d.Prom == nil {
		d.Prom = observability.NewProm()
	}
	if d.RateStore == nil {
		d.RateStore = ratelimit.NewMemory()
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware, outermost first
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health and metrics
	ready := map[string]handlers.Pinger{"store": d.Store}
	for name, p := range d.Ready {
		ready[name] = p
	}

	health := handlers.NewHealthHandler(ready)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(d.Prom.Handler()))

	authLimiter := middlewares.NewRateLimiter(d.RateStore, "auth", d.Cfg.RateLimitAuthPerMin, time.Minute, d.Prom)
	apiLimiter := middlewares.NewRateLimiter(d.RateStore, "api", d.Cfg.RateLimitAPIPerMin, time.Minute, d.Prom)

	// public auth routes
	authHandler := handlers.NewAuthHandler(d.Store.Users, d.JWT, d.Prom)

	authGroup := r.Group("/auth", authLimiter.Middleware(middlewares.KeyByIP))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// everything below needs a bearer token
	authMW := middlewares.NewAuthMiddleware(d.JWT, d.Prom)
	protected := r.Group("", authMW.RequireAuth(), apiLimiter.Middleware(middlewares.KeyByUserOrIP))

	tasks := handlers.NewTasksHandler(d.Store.Tasks)
	protected.GET("/tasks", tasks.ListTasks)
	protected.POST("/tasks", tasks.CreateTask)
	protected.GET("/tasks/:id", tasks.GetTask)
	protected.PUT("/tasks/:id", tasks.UpdateTask)
	protected.DELETE("/tasks/:id", tasks.DeleteTask)

	habits := handlers.NewHabitsHandler(d.Store.Habits)
	protected.GET("/habits", habits.ListHabits)
	protected.POST("/habits", habits.CreateHabit)
	protected.GET("/habits/:id", habits.GetHabit)
	protected.PUT("/habits/:id", habits.UpdateHabit)
	protected.DELETE("/habits/:id", habits.DeleteHabit)
	protected.POST("/habits/:id/log", habits.LogHabit)

	return r
}
