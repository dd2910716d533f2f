package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"paygrid-system/config"
	"paygrid-system/internal/auth"
	"paygrid-system/internal/database"
	"paygrid-system/internal/employee"
	"paygrid-system/internal/server/handlers"
	"paygrid-system/internal/server/middleware"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.MigrateSalaryDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.SeedDB {
		if err := database.SeedEmployees(db); err != nil {
			log.Fatalf("Failed to seed employees: %v", err)
		}
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	authService := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err := authService.EnsureAdmin(context.Background(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to provision admin user: %v", err)
	}

	if cfg.Auth.Bypass {
		log.Println("WARNING: admin gate bypass is enabled (non-production only)")
	}

	employeeStore := employee.NewStore(db, redisClient)

	authHandler := handlers.NewAuthHTTPHandler(authService)
	employeeHandler := handlers.NewEmployeeHTTPHandler(employeeStore)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(cfg.RateLimit))
	r.Use(middleware.Metrics())

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		authGroup := public.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
		}

		employees := public.Group("/employees")
		{
			employees.POST("", employeeHandler.SubmitEmployee)
			employees.GET("", employeeHandler.ListEmployees)
			employees.GET("/:id", employeeHandler.GetEmployee)
			employees.PUT("/:id", employeeHandler.UpdateEmployee)
			employees.DELETE("/:id", employeeHandler.DeleteEmployee)
		}
	}

	// --- Admin API Group ---
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	admin.Use(middleware.AdminOnly(cfg.Auth.Bypass))
	{
		admin.GET("/employees", employeeHandler.ListEmployeesAdmin)
		admin.PUT("/employees/:id/salary", employeeHandler.UpdateEmployeeSalary)
	}

	r.GET("/health", healthCheckHandler(cfg.AppName))
	r.GET("/health/detailed", detailedHealthCheckHandler(cfg.AppName, db, redisClient))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := ":" + cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheckHandler(appName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"app":    appName,
		})
	}
}

func detailedHealthCheckHandler(appName string, db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		services := map[string]interface{}{
			"database": checkDatabaseHealth(db),
			"redis":    checkRedisHealth(ctx, redisClient),
		}

		overallStatus := "ok"
		httpStatus := http.StatusOK
		for _, service := range services {
			if serviceMap, ok := service.(map[string]interface{}); ok {
				if serviceMap["status"] != "ok" {
					overallStatus = "degraded"
					httpStatus = http.StatusServiceUnavailable
				}
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":    overallStatus,
			"app":       appName,
			"services":  services,
			"timestamp": time.Now(),
		})
	}
}

func checkDatabaseHealth(db *gorm.DB) map[string]interface{} {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return map[string]interface{}{
			"status":  "unavailable",
			"message": err.Error(),
		}
	}
	return map[string]interface{}{
		"status":  "ok",
		"message": "Database is responding",
	}
}

func checkRedisHealth(ctx context.Context, redisClient *redis.Client) map[string]interface{} {
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return map[string]interface{}{
			"status":  "unavailable",
			"message": err.Error(),
		}
	}
	return map[string]interface{}{
		"status":  "ok",
		"message": "Redis is responding",
	}
}
