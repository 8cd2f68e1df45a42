package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/database/repository"
	"github.com/coldreach/outreach-backend/internal/email"
	"github.com/coldreach/outreach-backend/internal/handlers"
	"github.com/coldreach/outreach-backend/internal/middleware"
	"github.com/coldreach/outreach-backend/internal/services"
	"github.com/coldreach/outreach-backend/internal/services/auth"
)

// SetupRouter wires repositories, services, and handlers onto a Gin engine
func SetupRouter(db *gorm.DB, cfg *config.Settings, events services.EventPublisher) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)
	jobRepo := repository.NewEmailJobRepository(db)

	// Services
	authService := auth.NewAuthService(userRepo, cfg)
	campaignService := services.NewCampaignService(campaignRepo, leadRepo, jobRepo, templateRepo)
	leadService := services.NewLeadService(leadRepo, campaignService, jobRepo, events)
	templateService := services.NewTemplateService(templateRepo, campaignService, cfg.MaxCampaignSteps)
	jobService := services.NewJobService(
		jobRepo, leadRepo, campaignRepo, templateRepo, userRepo,
		email.NewProvider(cfg),
		services.NewRetryPolicy(cfg.MaxRetryAttempts),
		events,
		cfg,
	)

	// Middleware
	bearerToken := middleware.NewBearerTokenMiddleware(authService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	leadHandler := handlers.NewLeadHandler(leadService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	jobHandler := handlers.NewJobHandler(jobService, campaignService)
	webhookHandler := handlers.NewWebhookHandler(leadService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", bearerToken.RequireAuth(), authHandler.GetProfile)
			authGroup.PATCH("/me", bearerToken.RequireAuth(), authHandler.UpdateProfile)
		}

		campaigns := api.Group("/campaigns", bearerToken.RequireAuth())
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.PATCH("/:id", campaignHandler.UpdateCampaign)
			campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
			campaigns.POST("/:id/duplicate", campaignHandler.DuplicateCampaign)
			campaigns.POST("/:id/launch", campaignHandler.LaunchCampaign)
			campaigns.POST("/:id/pause", campaignHandler.PauseCampaign)
			campaigns.POST("/:id/resume", campaignHandler.ResumeCampaign)

			campaigns.POST("/:id/leads", leadHandler.CreateLead)
			campaigns.GET("/:id/leads", leadHandler.ListLeads)
			campaigns.DELETE("/:id/leads/:leadId", leadHandler.DeleteLead)
			campaigns.POST("/:id/leads/import", leadHandler.ImportLeads)

			campaigns.POST("/:id/templates", templateHandler.CreateTemplate)
			campaigns.GET("/:id/templates", templateHandler.ListTemplates)
			campaigns.PATCH("/:id/templates/:templateId", templateHandler.UpdateTemplate)
			campaigns.DELETE("/:id/templates/:templateId", templateHandler.DeleteTemplate)

			campaigns.GET("/:id/jobs", jobHandler.ListJobs)
			campaigns.GET("/:id/jobs/failed", jobHandler.ListFailedJobs)
			campaigns.GET("/:id/jobs/summary", jobHandler.GetStepSummary)
			campaigns.POST("/:id/jobs/retry", jobHandler.RetryAllFailedJobs)
			campaigns.POST("/:id/jobs/:jobId/retry", jobHandler.RetryFailedJob)
		}
	}

	webhooks := r.Group("/webhooks", middleware.WebhookBasicAuth(cfg.WebhookUsername, cfg.WebhookPassword))
	{
		webhooks.POST("/inbound-email", webhookHandler.HandleInboundEmail)
	}

	return r
}
