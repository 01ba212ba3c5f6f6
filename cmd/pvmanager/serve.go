package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Chihaouimed/PV/internal/config"
	"github.com/Chihaouimed/PV/internal/middleware"
	"github.com/Chihaouimed/PV/internal/pv/advisor"
	"github.com/Chihaouimed/PV/internal/pv/entity"
	"github.com/Chihaouimed/PV/internal/pv/handler"
	"github.com/Chihaouimed/PV/internal/pv/repository"
	"github.com/Chihaouimed/PV/internal/pv/service"
	"github.com/Chihaouimed/PV/internal/shared/llm"
	"github.com/Chihaouimed/PV/internal/shared/mail"
	"github.com/Chihaouimed/PV/internal/shared/sse"
	"github.com/Chihaouimed/PV/internal/shared/storage"
	"github.com/Chihaouimed/PV/internal/shared/worker"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting pvmanager",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		zapLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rdb := initRedis(cfg.Redis)
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	completer, err := llm.New(ctx, llm.Config{
		Provider:       cfg.AI.Provider,
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		Model:          cfg.AI.Model,
		Temperature:    cfg.AI.Temperature,
		Timeout:        cfg.AI.Timeout,
		MaxRetries:     cfg.AI.MaxRetries,
		RetryBaseDelay: cfg.AI.RetryBaseDelay,
	}, zapLogger)
	if err != nil {
		zapLogger.Warn("AI provider unavailable, using fallback plans", zap.Error(err))
		completer = nil
	}

	pool, err := worker.NewPool(ctx, "ai", cfg.AI.Workers, zapLogger)
	if err != nil {
		return fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Shutdown(cfg.Server.ShutdownTimeout)
	mailPool, err := worker.NewPool(ctx, "mail", cfg.SMTP.Workers, zapLogger, worker.Nonblocking())
	if err != nil {
		return fmt.Errorf("mail pool: %w", err)
	}
	defer mailPool.Shutdown(cfg.Server.ShutdownTimeout)

	hub := sse.NewHub(zapLogger)
	services := service.NewServices(repository.NewRepositories(db), service.Options{
		Advisor: advisor.New(completer, zapLogger),
		Mailer: mail.NewMailer(mail.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			FromAddress: cfg.SMTP.FromAddress,
			FromName:    cfg.SMTP.FromName,
		}, zapLogger),
		Hub: hub,
		Store: storage.New(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		}, cfg.Server.UploadDir, zapLogger),
		Redis:          rdb,
		Pool:           pool,
		MailPool:       mailPool,
		ReportCacheTTL: cfg.Report.CacheTTL,
		ReportWindow:   cfg.Report.DefaultWindow,
		Logger:         zapLogger,
	})

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/events"})))

	registerRoutes(router, handler.NewHandlers(services, hub), cfg, db, rdb, pool)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE connections are long-lived
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
	return nil
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config, db *gorm.DB, rdb *redis.Client, pool *worker.Pool) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		status := gin.H{"status": "ok", "database": "ok", "workers": pool.Stats()}
		if rdb != nil {
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = err.Error()
			} else {
				status["redis"] = "ok"
			}
		}
		c.JSON(http.StatusOK, status)
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "Not found"})
	})

	v1 := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	handler.RegisterRoutes(v1, h)
}
