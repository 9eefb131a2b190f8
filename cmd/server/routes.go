package main

import (
	"github.com/gin-gonic/gin"
	"github.com/parttimestudent/backend/internal/middleware"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	// Upload extraction calls a paid vision model, so keep it rate limited
	uploadLimiter := middleware.NewRateLimiter(1, 3)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.AuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Student routes
			student := protected.Group("/student")
			{
				student.GET("/profile", svc.authHandler.Me)
				student.PUT("/profile", svc.authHandler.UpdateProfile)
				student.GET("/projects", svc.reportHandler.MyProjects)
				student.GET("/timetable", svc.timetableHandler.Mine)
				student.POST("/timetable", uploadLimiter.Middleware(), svc.timetableHandler.Upload)
			}

			// PM routes
			pm := protected.Group("/pm")
			pm.Use(middleware.RoleRequired(models.RolePM, models.RoleAdmin))
			{
				pm.GET("/projects/:id", svc.projectHandler.GetByID)
				pm.PUT("/projects/:id", svc.projectHandler.Update)
				pm.DELETE("/projects/:id", svc.projectHandler.Delete)
				pm.PATCH("/projects/:id/status", svc.projectHandler.SetStatus)
				pm.GET("/projects/:id/members", svc.projectHandler.Members)
				pm.POST("/projects/:id/members", svc.projectHandler.AddMember)
				pm.DELETE("/projects/:id/members/:userId", svc.projectHandler.RemoveMember)

				pm.GET("/reports/projects", svc.reportHandler.List)
				pm.GET("/reports/status/:status", svc.reportHandler.ByStatus)
				pm.GET("/reports/due-soon", svc.reportHandler.DueSoon)
				pm.GET("/reports/overdue", svc.reportHandler.Overdue)
				pm.GET("/reports/help", svc.reportHandler.NeedingHelp)
				pm.GET("/reports/mine", svc.reportHandler.Mine)
				pm.GET("/reports/member/:id", svc.reportHandler.ByMember)
				pm.GET("/reports/overview", svc.reportHandler.Overview)
				pm.GET("/reports/countries", svc.reportHandler.Countries)

				pm.GET("/students", svc.userHandler.Students)
				pm.GET("/timetable/:id", svc.timetableHandler.ByUser)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminRequired(), middleware.AuditLog())
			{
				admin.POST("/projects", svc.projectHandler.Create)

				admin.GET("/users", svc.userHandler.List)
				admin.POST("/users", svc.userHandler.Create)
				admin.GET("/users/:id", svc.userHandler.GetByID)
				admin.PUT("/users/:id", svc.userHandler.Update)
				admin.DELETE("/users/:id", svc.userHandler.Delete)
				admin.PUT("/users/:id/role", svc.userHandler.SetRole)

				admin.GET("/logs", svc.systemLogHandler.List)
				admin.GET("/logs/modules", svc.systemLogHandler.GetModules)

				admin.POST("/reminders/run", func(c *gin.Context) {
					svc.reminderService.RunOnce()
					c.JSON(200, gin.H{"message": "reminder digest generated"})
				})
			}
		}
	}
}
