package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pqrsd-service/internal/api/http/handlers"
	"github.com/spec-kit/pqrsd-service/internal/auth"
	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Cases          *handlers.CasesHandler
	CaseAdmin      *handlers.CaseAdminHandler
	Departments    *handlers.DepartmentsHandler
	Analytics      *handlers.AnalyticsHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Public endpoints: filing and tracking require no account.
	app.Post("/cases", cfg.Cases.CreateCase)
	app.Get("/cases/track/:filingNumber", cfg.Cases.Track)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)

	anyStaff := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleOperator, domain.UserRoleAnalyst)
	operators := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleOperator)
	admins := auth.RequireRole(domain.UserRoleAdmin)

	cases := admin.Group("/cases")
	cases.Get("", anyStaff, cfg.CaseAdmin.ListCases)
	cases.Get("/:id", anyStaff, cfg.CaseAdmin.GetCase)
	cases.Get("/:id/history", anyStaff, cfg.CaseAdmin.History)
	cases.Get("/:id/comments", anyStaff, cfg.CaseAdmin.ListComments)
	cases.Patch("/:id/status", operators, cfg.CaseAdmin.UpdateStatus)
	cases.Patch("/:id/assign", operators, cfg.CaseAdmin.Assign)
	cases.Post("/:id/comments", operators, cfg.CaseAdmin.AddComment)
	cases.Post("/:id/attachments", operators, cfg.CaseAdmin.AddAttachment)
	cases.Delete("/:id", admins, cfg.CaseAdmin.DeleteCase)

	departments := admin.Group("/departments")
	departments.Get("", anyStaff, cfg.Departments.List)
	departments.Get("/:id", anyStaff, cfg.Departments.Get)
	departments.Post("", admins, cfg.Departments.Create)
	departments.Put("/:id", admins, cfg.Departments.Update)
	departments.Delete("/:id", admins, cfg.Departments.Deactivate)

	analytics := admin.Group("/analytics", anyStaff)
	analytics.Get("/dashboard", cfg.Analytics.Dashboard)
	analytics.Get("/status", cfg.Analytics.StatusBreakdown)
	analytics.Get("/monthly", cfg.Analytics.Monthly)
	analytics.Get("/by-type", cfg.Analytics.ByType)
	analytics.Get("/by-department", cfg.Analytics.ByDepartment)
	analytics.Get("/performance", cfg.Analytics.Performance)

	admin.Post("/users", admins, cfg.Auth.CreateUser)
}
