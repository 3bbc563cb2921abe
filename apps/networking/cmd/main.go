package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/mq"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/router"
	v1 "NetworkingServer/apps/networking/internal/router/v1"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/apps/networking/internal/sweeper"
	"NetworkingServer/config"
	"NetworkingServer/model"
	"NetworkingServer/pkg/async"
	"NetworkingServer/pkg/database"
	"NetworkingServer/pkg/kafka"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/notify"
	pkgredis "NetworkingServer/pkg/redis"
	"NetworkingServer/pkg/solana"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx := context.Background()

	appCfg := config.DefaultAppConfig()

	// 1. 初始化日志
	flushLog, err := logger.Setup(config.DefaultLoggerConfig(), appCfg.Name)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer flushLog()

	logger.Info(ctx, "Networking 服务初始化中...", logger.String("app", appCfg.Name))

	// 2. 初始化异步协程池（审计、告警、事件投递）
	notifyCfg := config.DefaultNotifyConfig()
	if err := async.Init(notifyCfg.Workers); err != nil {
		logger.Error(ctx, "初始化协程池失败", logger.ErrorField("error", err))
		os.Exit(1)
	}
	defer async.Release(5 * time.Second)

	// 3. 初始化数据库
	dbCfg := config.DefaultDatabaseConfig()
	db, err := database.Build(dbCfg)
	if err != nil {
		logger.Error(ctx, "初始化数据库失败", logger.String("driver", dbCfg.Driver), logger.ErrorField("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error(ctx, "关闭数据库失败", logger.ErrorField("error", err))
		}
	}()
	if dbCfg.AutoMigrate {
		if err := db.AutoMigrate(model.All()...); err != nil {
			logger.Error(ctx, "数据库迁移失败", logger.ErrorField("error", err))
			os.Exit(1)
		}
	}

	// 4. 初始化 Redis（可选，不可用时限流与清算锁降级）
	rdb, err := pkgredis.Connect(ctx, config.DefaultRedisConfig())
	if err != nil {
		logger.Warn(ctx, "Redis 不可用，限流与分布式锁降级", logger.ErrorField("error", err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// 5. 初始化 Kafka Producer（可选）
	kafkaCfg := config.DefaultKafkaConfig()
	var auditSender notify.JSONSender
	var publisher mq.Publisher = mq.Nop{}
	if kafkaCfg.Enabled {
		producer := kafka.NewProducer(kafkaCfg)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Error(ctx, "关闭 Kafka Producer 失败", logger.ErrorField("error", err))
			}
		}()
		auditSender = producer
		publisher = mq.NewPublisher(producer, kafkaCfg.EventTopic)
	}

	// 6. 通知通道（Discord 审计、Telegram 告警、Kafka 审计）
	dispatcher := notify.NewDispatcher(notify.Build(ctx, notifyCfg, auditSender, kafkaCfg.AuditTopic), notifyCfg.Timeout)

	// 7. 链上校验
	solanaCfg := config.DefaultSolanaConfig()
	verifier, err := solana.New(solanaCfg)
	if err != nil {
		logger.Error(ctx, "初始化 Solana 校验器失败", logger.ErrorField("error", err))
		os.Exit(1)
	}

	// 8. 组装 repository / service / handler
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewNetworkingRepository(db)
	spamRepo := repository.NewSpamRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	transactor := repository.NewTransactor(db)
	eventRepo := repository.NewEventRepository(db)
	networkingService := service.NewNetworkingService(
		transactor,
		requestRepo,
		userRepo,
		eventRepo,
		spamRepo,
		walletRepo,
		publisher,
	)
	eventService := service.NewEventService(transactor, eventRepo, userRepo, spamRepo)
	userNetworkService := service.NewUserNetworkService(transactor, repository.NewUserNetworkRepository(db), userRepo, eventRepo)

	// 9. 进程内清算（独立部署 cmd/refund 时关闭）
	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	sweeperCfg := config.DefaultSweeperConfig()
	if sweeperCfg.Enabled {
		sw, err := sweeper.New(sweeperCfg, requestRepo, walletRepo, verifier, rdb, sweeper.WithPublisher(publisher))
		if err != nil {
			logger.Error(ctx, "初始化清算任务失败", logger.ErrorField("error", err))
			os.Exit(1)
		}
		go sw.Run(runCtx)
		logger.Info(ctx, "进程内清算已启动", logger.Duration("interval", sweeperCfg.Interval))
	}

	// 10. 初始化路由
	rateCfg := config.DefaultRateLimitConfig()
	sendLimiter := middleware.NewUserRateLimiter(rateCfg.SendRate, rateCfg.SendBurst)
	go sendLimiter.RunCleanup(runCtx, time.Hour)

	gin.SetMode(appCfg.GinMode)
	r := router.InitRouter(router.Deps{
		App:            appCfg,
		JWT:            config.DefaultJWTConfig(),
		RateLimit:      rateCfg,
		Redis:          rdb,
		Users:          userRepo,
		Verifier:       verifier,
		PlatformWallet: solanaCfg.PlatformWallet,
		Dispatcher:     dispatcher,
		SendLimiter:    sendLimiter,
		Networking:     v1.NewNetworkingHandler(networkingService, appCfg.Debug),
		Spam:           v1.NewSpamHandler(service.NewSpamService(spamRepo, userRepo), appCfg.Debug),
		Wallet:         v1.NewWalletHandler(service.NewWalletService(walletRepo), appCfg.Debug),
		Transaction:    v1.NewTransactionHandler(service.NewTransactionService(verifier, solanaCfg.PlatformWallet, solanaCfg.TestMode), appCfg.Debug),
		Event:          v1.NewEventHandler(eventService, appCfg.Debug),
		Network:        v1.NewUserNetworkHandler(userNetworkService, appCfg.Debug),
	})

	// 11. 配置并启动服务器
	srv := &http.Server{
		Addr:           appCfg.Addr,
		Handler:        r,
		ReadTimeout:    appCfg.ReadTimeout,
		WriteTimeout:   appCfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info(ctx, "Networking 服务器启动中", logger.String("address", appCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "服务器启动失败", logger.ErrorField("error", err))
			os.Exit(1)
		}
	}()

	// 12. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info(ctx, "收到关闭信号，开始优雅停机...", logger.String("signal", sig.String()))

	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "服务器强制关闭", logger.ErrorField("error", err))
		return
	}

	logger.Info(ctx, "Networking 服务器已优雅退出")
}
