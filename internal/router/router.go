package router

import (
	"time"

	"coachly/config"
	"coachly/internal/domain"
	"coachly/internal/handler"
	"coachly/internal/middleware"
	"coachly/internal/repository"
	"coachly/internal/service"
	"coachly/pkg/cloudinary"
	"coachly/pkg/mailer"
	"coachly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, provider payment.Provider, mail *mailer.Mailer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo, roleRepo)
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, walletRepo, provider)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	walletHandler := handler.NewWalletHandler(cfg, walletRepo, transactionRepo, userRepo, provider)
	creditsWebhookHandler := handler.NewCreditsWebhookHandler(cfg, transactionRepo, auditRepo, provider)
	withdrawalHandler := handler.NewWithdrawalHandler(cfg, walletRepo, withdrawalRepo)
	adminWithdrawalHandler := handler.NewAdminWithdrawalHandler(cfg, walletRepo, withdrawalRepo, userRepo, auditRepo, withdrawalSvc, provider, mail)
	adminHandler := handler.NewAdminHandler(userRepo, roleRepo, auditRepo)
	courseHandler := handler.NewCourseHandler(courseRepo, enrollmentRepo, cloud)
	enrollmentHandler := handler.NewEnrollmentHandler(courseRepo, enrollmentRepo, walletRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	coachMw := middleware.RequireRoles(roleRepo, domain.RoleCoach, domain.RoleAdmin)
	adminMw := middleware.AdminRequired(roleRepo)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		api.GET("/courses", courseHandler.ListPublished)
		api.GET("/courses/:id", courseHandler.Get)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/wallet/transactions", walletHandler.ListTransactions)
			me.POST("/wallet/purchase", walletHandler.PurchaseCredits)
			me.GET("/enrollments", enrollmentHandler.ListMine)
			me.GET("/withdrawals", coachMw, withdrawalHandler.ListMine)
		}

		api.POST("/courses/:id/enroll", authMw, enrollmentHandler.Enroll)
		api.POST("/withdrawals", authMw, coachMw, withdrawalHandler.Create)

		coach := api.Group("/coach")
		coach.Use(authMw, coachMw)
		{
			coach.GET("/courses", courseHandler.MyCourses)
			coach.POST("/courses", courseHandler.Create)
			coach.PUT("/courses/:id", courseHandler.Update)
			coach.POST("/courses/:id/archive", courseHandler.Archive)
			coach.POST("/courses/:id/cover", courseHandler.UploadCover)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/role", adminHandler.UpsertUserRole)
			admin.GET("/withdrawals", adminWithdrawalHandler.List)
			admin.POST("/withdrawals/decide", adminWithdrawalHandler.Decide)
			admin.POST("/withdrawals/:id/check", adminWithdrawalHandler.CheckStatus)
		}

		api.POST("/webhooks/credits", creditsWebhookHandler.Handle)
		api.GET("/webhooks/credits/return", creditsWebhookHandler.HandleReturn)
	}

	return r
}
