package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/insta_check_server/config"
	"github.com/qs3c/insta_check_server/internal/api/handler"
	"github.com/qs3c/insta_check_server/internal/api/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	analysisHandler  *handler.AnalysisHandler
	paymentHandler   *handler.PaymentHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	analysisHandler *handler.AnalysisHandler,
	paymentHandler *handler.PaymentHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		analysisHandler:  analysisHandler,
		paymentHandler:   paymentHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/google", r.authHandler.GoogleAuth)
			auth.GET("/google/callback", r.authHandler.GoogleCallback)
		}

		// 公开接口 - 分享页
		api.GET("/share/:token", r.analysisHandler.GetShared)

		// 支付回调（渠道侧调用，签名鉴权）
		api.POST("/payment/webhook", r.paymentHandler.Webhook)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.GET("/quota", r.userHandler.GetQuota)
			}

			// 分析
			analyses := authenticated.Group("/analyses")
			{
				analyses.POST("", r.analysisHandler.Create)
				analyses.POST("/step", r.analysisHandler.Step)
				analyses.GET("", r.analysisHandler.List)
				analyses.GET("/:id/status", r.analysisHandler.GetStatus)
				analyses.GET("/:id/result", r.analysisHandler.GetResult)
				analyses.DELETE("/:id", r.analysisHandler.Delete)
				analyses.POST("/:id/share", r.analysisHandler.Share)
			}

			// 支付
			paymentGroup := authenticated.Group("/payment")
			{
				paymentGroup.POST("/pending", r.paymentHandler.CreatePending)
				paymentGroup.POST("/checkout", r.paymentHandler.CreateCheckout)
			}
		}
	}

	return engine
}
