package router

import (
	"time"

	"samiti/internal/database"
	"samiti/internal/handlers"
	"samiti/internal/middleware"
	"samiti/internal/services"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 自定义校验规则
	middleware.RegisterValidators()

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	db := database.GetDB()
	auth := middleware.NewAuthMiddleware(db)
	notifier := services.NewNotifier(database.GetNotifyQueue())

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由（注册、登录无需认证）
		authHandler := handlers.NewAuthHandler(services.NewUserService(db))
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 组织路由。组织本身是全局实体，创建即开通一个新租户
		orgHandler := handlers.NewOrganizationHandler(services.NewOrganizationService(db))
		orgs := api.Group("/orgs", auth.RequireLogin())
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.ListMine)
			orgs.GET("/:org_id", orgHandler.Get)
			orgs.PUT("/:org_id", orgHandler.Update)
		}

		// 邀请接受接口不在组织路由组下：接受者此刻还不是成员
		memberHandler := handlers.NewMembershipHandler(services.NewMembershipService(db, notifier))
		api.POST("/invitations/accept", auth.RequireLogin(), memberHandler.AcceptInvite)

		// 组织内资源路由。所有接口先过登录中间件，
		// 成员资格与角色检查在服务层经访问门禁完成
		scoped := api.Group("/orgs/:org_id", auth.RequireLogin())
		{
			members := scoped.Group("/members")
			{
				members.GET("", memberHandler.List)
				members.POST("/invite", memberHandler.Invite)
				members.PUT("/:member_id/role", memberHandler.ChangeRole)
				members.DELETE("/:member_id", memberHandler.Archive)
			}

			donationHandler := handlers.NewDonationHandler(services.NewDonationService(db))
			donations := scoped.Group("/donations")
			{
				donations.POST("", donationHandler.Create)
				donations.GET("", donationHandler.List)
				donations.DELETE("/:donation_id", donationHandler.Archive)
			}

			expenseHandler := handlers.NewExpenseHandler(services.NewExpenseService(db, notifier))
			expenses := scoped.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.POST("/:expense_id/approve", expenseHandler.Approve)
				expenses.POST("/:expense_id/reject", expenseHandler.Reject)
				expenses.DELETE("/:expense_id", expenseHandler.Archive)
			}

			eventHandler := handlers.NewEventHandler(services.NewEventService(db))
			events := scoped.Group("/events")
			{
				events.POST("", eventHandler.Create)
				events.GET("", eventHandler.List)
				events.PUT("/:event_id", eventHandler.Update)
				events.DELETE("/:event_id", eventHandler.Archive)
			}

			taskHandler := handlers.NewTaskHandler(services.NewTaskService(db))
			tasks := scoped.Group("/tasks")
			{
				tasks.POST("", taskHandler.Create)
				tasks.GET("", taskHandler.List)
				tasks.PUT("/:task_id/status", taskHandler.UpdateStatus)
				tasks.DELETE("/:task_id", taskHandler.Archive)
			}

			bhogHandler := handlers.NewBhogHandler(services.NewBhogService(db))
			bhog := scoped.Group("/bhog")
			{
				bhog.POST("", bhogHandler.Register)
				bhog.GET("", bhogHandler.List)
				bhog.DELETE("/:item_id", bhogHandler.Archive)
			}

			financeHandler := handlers.NewFinanceHandler(services.NewFinanceService(db))
			finance := scoped.Group("/finance")
			{
				finance.GET("/snapshot", financeHandler.Snapshot)
				finance.GET("/events", financeHandler.EventBreakdown)
			}
		}

		// 通知推送WebSocket（令牌走查询参数，认证在处理器内完成）
		notifyWS := handlers.NewNotifyWSHandler()
		api.GET("/ws/orgs/:org_id/notifications", notifyWS.Stream)
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "samiti",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
