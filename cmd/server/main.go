package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/auth"
	"github.com/yukikurage/org-membership-api/internal/config"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/handlers"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/notify"
	"github.com/yukikurage/org-membership-api/internal/policy"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.Use(middleware.RequestScope(cfg.RequestTimeout, cfg.RequestCacheTTL))

	// Initialize services
	repo := repository.NewStore(db)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(repo)
	orgService := services.NewOrganizationService(repo)
	memberService := services.NewMembershipService(repo)
	invitationService := services.NewInvitationService(repo, notify.NewLogNotifier(log.Default()))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokens)
	orgHandler := handlers.NewOrganizationHandler(orgService, memberService)
	memberHandler := handlers.NewMembershipHandler(memberService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)

	requireAuth := middleware.RequireAuth(tokens)
	orgAccess := middleware.RequireOrganizationAccess(orgService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Printf("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Organization Membership API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.POST("/token", authHandler.IssueToken)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
			authRoutes.PATCH("/me", requireAuth, authHandler.UpdateCurrentUser)
			authRoutes.PUT("/me/password", requireAuth, authHandler.ChangePassword)
			authRoutes.DELETE("/me", requireAuth, authHandler.DeleteCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(requireAuth)
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.GET("/slug/:slug", orgHandler.GetOrganizationBySlug)
			orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", orgAccess, middleware.RequireOrganizationPermission(policy.ActionUpdateOrganization), orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", orgAccess, middleware.RequireOrganizationPermission(policy.ActionDeleteOrganization), orgHandler.DeleteOrganization)
			orgs.POST("/:id/leave", orgAccess, orgHandler.LeaveOrganization)
			orgs.POST("/:id/transfer", orgAccess, middleware.RequireOrganizationPermission(policy.ActionTransferOwnership), orgHandler.TransferOwnership)

			orgs.GET("/:id/members", orgAccess, memberHandler.ListMembers)
			orgs.DELETE("/:id/members/:user_id", orgAccess, middleware.RequireOrganizationPermission(policy.ActionRemoveMember), memberHandler.RemoveMember)
			orgs.PATCH("/:id/members/:user_id", orgAccess, middleware.RequireOrganizationPermission(policy.ActionChangeMemberRole), memberHandler.ChangeRole)
			orgs.POST("/:id/members/:user_id/suspend", orgAccess, middleware.RequireOrganizationPermission(policy.ActionSuspendMember), memberHandler.SuspendMember)
			orgs.POST("/:id/members/:user_id/reactivate", orgAccess, middleware.RequireOrganizationPermission(policy.ActionSuspendMember), memberHandler.ReactivateMember)

			orgs.GET("/:id/invitations", orgAccess, middleware.RequireOrganizationPermission(policy.ActionViewInvitations), invitationHandler.ListOrganizationInvitations)
			orgs.POST("/:id/invitations", orgAccess, middleware.RequireOrganizationPermission(policy.ActionInviteUser), invitationHandler.CreateInvitation)
		}

		// Invitation routes (protected)
		invitations := api.Group("/invitations")
		invitations.Use(requireAuth)
		{
			invitations.GET("", invitationHandler.ListMyInvitations)
			invitations.GET("/:id", invitationHandler.GetInvitation)
			invitations.DELETE("/:id", invitationHandler.DeleteInvitation)
			invitations.POST("/:id/accept", invitationHandler.AcceptInvitation)
			invitations.POST("/:id/decline", invitationHandler.DeclineInvitation)
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
