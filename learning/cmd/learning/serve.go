package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/mediocregopher/radix/v4"
	"github.com/spf13/cobra"
	"github.com/tilinna/clock"

	"github.com/XaviFP/manabi/common/cache"
	"github.com/XaviFP/manabi/common/config"
	"github.com/XaviFP/manabi/common/db"
	"github.com/XaviFP/manabi/common/logging"
	"github.com/XaviFP/manabi/learning/internal/achievement"
	"github.com/XaviFP/manabi/learning/internal/assessment"
	"github.com/XaviFP/manabi/learning/internal/course"
	"github.com/XaviFP/manabi/learning/internal/gate"
	"github.com/XaviFP/manabi/learning/internal/learning"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), loadConfig())
	},
}

type learningConfig struct {
	DBConf     config.DBConfig
	CacheConf  config.CacheConfig
	HTTPConf   config.HTTPServerConfig
	AdminConf  config.AdminConfig
	EngineConf config.EngineConfig
}

func loadConfig() learningConfig {
	return learningConfig{
		DBConf:     config.LoadDBConfig(),
		CacheConf:  config.LoadCacheConfig(),
		HTTPConf:   config.LoadHTTPServerConfig(),
		AdminConf:  config.LoadAdminConfig(),
		EngineConf: config.LoadEngineConfig(),
	}
}

func serve(ctx context.Context, conf learningConfig) error {
	logger := logging.Setup("learning")

	database, err := db.InitDB(conf.DBConf)
	if err != nil {
		return errors.Annotate(err, "connecting to database")
	}
	defer database.Close()

	redisClient, err := (radix.PoolConfig{}).New(ctx, conf.CacheConf.TransportProtocol, fmt.Sprintf("%s:%s", conf.CacheConf.Host, conf.CacheConf.Port))
	if err != nil {
		return errors.Annotate(err, "connecting to cache")
	}
	defer redisClient.Close()

	c := cache.NewCache(redisClient)
	ttl := conf.EngineConf.StructureCacheTTL

	realClock := clock.Realtime()

	evaluator, err := achievement.NewEvaluator(realClock, achievement.DefaultCatalog())
	if err != nil {
		return errors.Trace(err)
	}

	engine := learning.NewEngine(
		realClock,
		course.NewRedisRepository(c, course.NewPGRepository(database), ttl),
		assessment.NewRedisRepository(c, assessment.NewPGRepository(database), ttl),
		achievement.NewPGRepository(database),
		evaluator,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinRecovery(logger), logging.GinLogger(logger))
	gate.RegisterRoutes(router.Group("/"), engine, conf.AdminConf)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", conf.HTTPConf.Host, conf.HTTPConf.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverError := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
	case err := <-serverError:
		return errors.Annotate(err, "http server failure")
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Trace(srv.Shutdown(shutdownCtx))
}
