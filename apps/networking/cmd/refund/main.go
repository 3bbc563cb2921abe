// refund 独立运行延迟退款清算
//
//	refund -once   执行一次后退出（cron 调度）
//	refund         按 SWEEPER_INTERVAL 周期执行，直到收到退出信号
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NetworkingServer/apps/networking/internal/mq"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/sweeper"
	"NetworkingServer/config"
	"NetworkingServer/pkg/async"
	"NetworkingServer/pkg/database"
	"NetworkingServer/pkg/kafka"
	"NetworkingServer/pkg/logger"
	pkgredis "NetworkingServer/pkg/redis"
	"NetworkingServer/pkg/solana"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	// 1. 日志
	flushLog, err := logger.Setup(config.DefaultLoggerConfig(), config.DefaultAppConfig().Name+"-refund")
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer flushLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *once); err != nil {
		logger.Error(ctx, "清算进程异常退出", logger.ErrorField("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, once bool) error {
	if err := async.Init(0); err != nil {
		return err
	}
	defer async.Release(5 * time.Second)

	// 2. 数据库
	db, err := database.Build(config.DefaultDatabaseConfig())
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	// 3. Redis（可选）
	rdb, err := pkgredis.Connect(ctx, config.DefaultRedisConfig())
	if err != nil {
		logger.Warn(ctx, "Redis 不可用，只依赖条件写入防重", logger.ErrorField("error", err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// 4. Kafka（可选）
	var publisher mq.Publisher = mq.Nop{}
	if kafkaCfg := config.DefaultKafkaConfig(); kafkaCfg.Enabled {
		producer := kafka.NewProducer(kafkaCfg)
		defer func() { _ = producer.Close() }()
		publisher = mq.NewPublisher(producer, kafkaCfg.EventTopic)
	}

	// 5. 链上退款
	verifier, err := solana.New(config.DefaultSolanaConfig())
	if err != nil {
		return fmt.Errorf("init solana verifier: %w", err)
	}

	cfg := config.DefaultSweeperConfig()
	sw, err := sweeper.New(cfg,
		repository.NewNetworkingRepository(db),
		repository.NewWalletRepository(db),
		verifier,
		rdb,
		sweeper.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}

	if once {
		report, err := sw.RunOnce(ctx)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			logger.Warn(ctx, "本次清算存在失败行，下次重试", logger.Int("failed", report.Failed))
		}
		return nil
	}

	logger.Info(ctx, "清算进程启动", logger.Duration("interval", cfg.Interval))
	sw.Run(ctx)
	logger.Info(ctx, "清算进程已退出")
	return nil
}
