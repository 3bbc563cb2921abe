package router

import (
	"reflect"
	"strings"
	"sync"

	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/repository"
	v1 "NetworkingServer/apps/networking/internal/router/v1"
	"NetworkingServer/config"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/notify"
	"NetworkingServer/pkg/result"
	"NetworkingServer/pkg/solana"
	"NetworkingServer/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

// Deps 路由依赖（依赖注入）
type Deps struct {
	App       config.AppConfig
	JWT       config.JWTConfig
	RateLimit config.RateLimitConfig

	Redis          *goredis.Client // 可为 nil，限流降级放行
	Users          repository.IUserRepository
	Verifier       solana.Verifier
	PlatformWallet string
	Dispatcher     *notify.Dispatcher
	SendLimiter    *middleware.UserRateLimiter

	Networking  *v1.NetworkingHandler
	Spam        *v1.SpamHandler
	Wallet      *v1.WalletHandler
	Transaction *v1.TransactionHandler
	Event       *v1.EventHandler
	Network     *v1.UserNetworkHandler
}

var validatorOnce sync.Once

// useJSONFieldNames 校验错误里的字段名使用 json tag，和请求体保持一致
func useJSONFieldNames() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// InitRouter 初始化路由
func InitRouter(d Deps) *gin.Engine {
	useJSONFieldNames()
	if d.SendLimiter == nil {
		d.SendLimiter = middleware.NewUserRateLimiter(d.RateLimit.SendRate, d.RateLimit.SendBurst)
	}

	r := gin.New()

	// 追踪中间件 (生成 trace_id)，放在最前面保证 panic 告警也带 trace_id
	r.Use(util.TraceLogger())

	// 恢复中间件
	r.Use(middleware.GinRecovery(true, d.Dispatcher))

	// 客户端 IP 中间件
	r.Use(middleware.ClientIPMiddleware(d.App.TrustedProxies))

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.PrometheusMiddleware())

	// 跨域中间件
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(d.App.CORSOrigins)))

	// IP 黑名单 + 令牌桶，Redis 不可用时降级放行
	r.Use(middleware.IPRateLimitMiddleware(d.Redis, d.RateLimit))

	// 非 GET 请求审计
	r.Use(middleware.Audit(d.Dispatcher))

	r.NoRoute(func(c *gin.Context) {
		result.Fail(c, nil, consts.CodeResourceNotFound)
	})

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		result.Success(c, gin.H{"status": "ok"})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("")
	auth.Use(middleware.JWTAuth(d.JWT, d.Users))
	{
		networking := auth.Group("/networking")
		{
			networking.POST("/send-request/",
				middleware.UserRateLimitMiddleware(d.SendLimiter),
				middleware.TransactionVerify(d.Verifier, d.PlatformWallet),
				d.Networking.SendRequest,
			)
			networking.GET("/received-requests/", d.Networking.ListReceived)
			networking.GET("/sent-requests/", d.Networking.ListSent)
			networking.POST("/respond/:request_id/", d.Networking.Respond)
			networking.GET("/connections/", d.Networking.ListConnections)
			networking.POST("/connections/:connection_id/remove/", d.Networking.RemoveConnection)
			networking.GET("/health-check/", d.Wallet.HealthCheck)

			spam := networking.Group("/spam-reports")
			spam.Use(middleware.RequireStaff())
			{
				spam.GET("/", d.Spam.List)
				spam.POST("/", d.Spam.SetBan)
			}
		}

		auth.POST("/wallet/connect/", d.Wallet.Connect)

		transaction := auth.Group("/transaction")
		{
			transaction.GET("/status/:transaction_id/", d.Transaction.Status)
			transaction.POST("/mock/", d.Transaction.Mock)
		}

		auth.GET("/notifications/count/", d.Networking.NotificationCount)

		event := auth.Group("/event")
		{
			event.GET("/", d.Event.ListJoined)
			event.POST("/", d.Event.Create)
			event.POST("/join/:code/", d.Event.Join)
		}
		auth.GET("/admin_event/", d.Event.ListAdminEvents)
		auth.GET("/attendees/", d.Event.Attendees)

		auth.POST("/create-a-network/", d.Network.Create)
		auth.GET("/networks_and_connnections/", d.Network.List)
		auth.GET("/networks_and_connnections/:connected_network_user_id/", d.Network.ConnectedUser)
		auth.POST("/save-network-information/", d.Network.SaveMeeting)
		auth.GET("/get-network-information/:network_id/", d.Network.GetMeeting)
	}

	return r
}
