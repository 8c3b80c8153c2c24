// 保单管理 API 服务：保单、理赔、核保的命令与查询入口。
// 状态变更的承保方同步效果由 syncworker 异步消费完成。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/policyadmin/internal/carrier"
	claimapp "github.com/wyfcoding/policyadmin/internal/claim/application"
	claimdomain "github.com/wyfcoding/policyadmin/internal/claim/domain"
	claimmysql "github.com/wyfcoding/policyadmin/internal/claim/infrastructure/persistence/mysql"
	claimhttp "github.com/wyfcoding/policyadmin/internal/claim/interfaces/http"
	"github.com/wyfcoding/policyadmin/internal/event"
	policyapp "github.com/wyfcoding/policyadmin/internal/policy/application"
	policydomain "github.com/wyfcoding/policyadmin/internal/policy/domain"
	policymysql "github.com/wyfcoding/policyadmin/internal/policy/infrastructure/persistence/mysql"
	policyhttp "github.com/wyfcoding/policyadmin/internal/policy/interfaces/http"
	uwapp "github.com/wyfcoding/policyadmin/internal/underwriting/application"
	uwdomain "github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	uwmysql "github.com/wyfcoding/policyadmin/internal/underwriting/infrastructure/persistence/mysql"
	uwhttp "github.com/wyfcoding/policyadmin/internal/underwriting/interfaces/http"
	"github.com/wyfcoding/policyadmin/pkg/config"
	"github.com/wyfcoding/policyadmin/pkg/db"
	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"github.com/wyfcoding/policyadmin/pkg/middleware"
	"github.com/wyfcoding/policyadmin/pkg/mq"
	"github.com/wyfcoding/policyadmin/pkg/resilience"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var configPath = flag.String("config", "configs/policyapi/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	log := logger.Get()

	// 3. Metrics
	m := metrics.New("policyapi")
	if err := m.Register(); err != nil {
		logger.Fatal(context.Background(), "failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				logger.Error(context.Background(), "metrics server exited", "error", err)
			}
		}()
	}

	// 4. Infrastructure
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(context.Background(), "failed to connect database", "error", err)
	}
	defer database.Close()

	if cfg.Environment == "dev" {
		if err := autoMigrate(database.DB); err != nil {
			logger.Error(context.Background(), "failed to migrate database", "error", err)
		}
	}

	producer := mq.NewProducer(mq.Config{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	defer producer.Close()
	publisher := event.NewKafkaPublisher(producer, m)

	// 5. Carrier client：API 侧仅核保复核后的即时同步使用
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:                 "carrier-sync",
		Window:               time.Duration(cfg.Breaker.Window) * time.Second,
		FailureRateThreshold: cfg.Breaker.FailureRateThreshold,
		MinRequests:          cfg.Breaker.MinRequests,
		ResetTimeout:         time.Duration(cfg.Breaker.ResetTimeout) * time.Second,
	}, func(name string, _, to gobreaker.State) {
		m.BreakerState.WithLabelValues(name).Set(resilience.StateGaugeValue(to))
	})
	retrier := resilience.NewRetrier(resilience.RetryPolicy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		InitialDelay:  time.Duration(cfg.Retry.InitialDelay) * time.Millisecond,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      time.Duration(cfg.Retry.MaxDelay) * time.Millisecond,
	})
	carrierClient := carrier.NewClient(cfg.Carrier, breaker, retrier, m)

	// 6. Application
	policyRepo := policymysql.NewPolicyRepo(database.DB)
	claimRepo := claimmysql.NewClaimRepo(database.DB)
	assessmentRepo := uwmysql.NewAssessmentRepo(database.DB)
	decisionRepo := uwmysql.NewDecisionRepo(database.DB)

	policyCommands := policyapp.NewCommandService(policyRepo, publisher, log)
	policyQueries := policyapp.NewQueryService(policyRepo)
	claimCommands := claimapp.NewCommandService(claimRepo, publisher, log)
	claimQueries := claimapp.NewQueryService(claimRepo)
	engine := uwapp.NewEngine(assessmentRepo, decisionRepo, policyRepo, carrierClient, publisher, m, log)
	uwQueries := uwapp.NewQueryService(assessmentRepo, decisionRepo)

	// 7. Interfaces
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.CorrelationID(), middleware.Logging(), middleware.Metrics(m), middleware.CORS())

	api := r.Group("/api/v1")
	policyhttp.NewHandler(policyCommands, policyQueries).RegisterRoutes(api)
	claimhttp.NewHandler(claimCommands, claimQueries).RegisterRoutes(api)
	uwhttp.NewHandler(engine, uwQueries).RegisterRoutes(api)

	// 8. Start
	g, ctx := errgroup.WithContext(context.Background())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down server...")
		case <-ctx.Done():
			logger.Info(ctx, "context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "server exited with error", "error", err)
	}
}

// autoMigrate 开发环境建表，生产环境由迁移脚本管理
func autoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&policydomain.Policy{},
		&policydomain.Coverage{},
		&policydomain.PolicyDocument{},
		&claimdomain.Claim{},
		&claimdomain.StatusChange{},
		&claimdomain.Adjustment{},
		&uwdomain.RiskAssessment{},
		&uwdomain.RiskFactor{},
		&uwdomain.UnderwritingDecision{},
		&uwdomain.DecisionReview{},
	)
}
