// 承保方同步 worker：消费保单、理赔、核保事件并执行业务效果。
// 每个主题一个消费循环，循环内串行处理保证同聚合事件按序生效。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wyfcoding/policyadmin/internal/carrier"
	claimapp "github.com/wyfcoding/policyadmin/internal/claim/application"
	claimmysql "github.com/wyfcoding/policyadmin/internal/claim/infrastructure/persistence/mysql"
	claimconsumer "github.com/wyfcoding/policyadmin/internal/claim/interfaces/consumer"
	"github.com/wyfcoding/policyadmin/internal/event"
	policymysql "github.com/wyfcoding/policyadmin/internal/policy/infrastructure/persistence/mysql"
	policyconsumer "github.com/wyfcoding/policyadmin/internal/policy/interfaces/consumer"
	uwapp "github.com/wyfcoding/policyadmin/internal/underwriting/application"
	uwmysql "github.com/wyfcoding/policyadmin/internal/underwriting/infrastructure/persistence/mysql"
	uwconsumer "github.com/wyfcoding/policyadmin/internal/underwriting/interfaces/consumer"
	"github.com/wyfcoding/policyadmin/pkg/config"
	"github.com/wyfcoding/policyadmin/pkg/db"
	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"github.com/wyfcoding/policyadmin/pkg/mq"
	"github.com/wyfcoding/policyadmin/pkg/resilience"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/syncworker/config.toml", "config file path")

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
	m := metrics.New("syncworker")
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

	kafkaCfg := mq.Config{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	producer := mq.NewProducer(kafkaCfg)
	defer producer.Close()
	publisher := event.NewKafkaPublisher(producer, m)

	dedup, err := mq.NewDeduplicator(
		time.Duration(cfg.Consumer.DedupWindow)*time.Second,
		cfg.Consumer.DedupMaxMemory,
	)
	if err != nil {
		logger.Fatal(context.Background(), "failed to init deduplicator", "error", err)
	}
	defer dedup.Close()

	// 5. Carrier client
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

	claimCommands := claimapp.NewCommandService(claimRepo, publisher, log)
	engine := uwapp.NewEngine(assessmentRepo, decisionRepo, policyRepo, carrierClient, publisher, m, log)

	// 消息处理自身的重试预算独立于承保方调用的重试预算
	handlerRetrier := resilience.NewRetrier(resilience.RetryPolicy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		InitialDelay:  time.Duration(cfg.Retry.InitialDelay) * time.Millisecond,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      time.Duration(cfg.Retry.MaxDelay) * time.Millisecond,
	})

	// 7. Runners：每个主题一个消费循环
	newRunner := func(topic string, handler mq.Handler) (*mq.Runner, *mq.Consumer) {
		consumer := mq.NewConsumer(kafkaCfg, topic)
		dlq := mq.NewDeadLetterQueue(producer, event.DLQTopic(topic))
		runner := mq.NewRunner(topic, consumer, dlq, dedup, handlerRetrier, event.IDFromMessage, handler, m)
		return runner, consumer
	}

	policyRunner, policyConsumer := newRunner(event.TopicPolicyEvents,
		policyconsumer.NewHandler(policyRepo, carrierClient, log))
	claimRunner, claimConsumer := newRunner(event.TopicClaimsEvents,
		claimconsumer.NewHandler(claimCommands, log))
	uwRunner, uwConsumer := newRunner(event.TopicUnderwritingEvents,
		uwconsumer.NewHandler(engine, log))

	// 8. Start
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return policyRunner.Run(ctx) })
	g.Go(func() error { return claimRunner.Run(ctx) })
	g.Go(func() error { return uwRunner.Run(ctx) })

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(ctx, "shutting down workers...")
		case <-ctx.Done():
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "worker exited with error", "error", err)
	}

	for _, c := range []*mq.Consumer{policyConsumer, claimConsumer, uwConsumer} {
		if err := c.Close(); err != nil {
			logger.Error(context.Background(), "failed to close consumer", "error", err)
		}
	}
}
