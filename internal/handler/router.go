package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clae-hq/admissions-api/internal/middleware"
	"github.com/clae-hq/admissions-api/internal/models"
	"github.com/clae-hq/admissions-api/internal/service"
)

// Router groups the API handlers and registers their routes.
type Router struct {
	Auth        *AuthHandler
	Intake      *IntakeHandler
	Tracking    *TrackingHandler
	Upload      *UploadHandler
	School      *SchoolHandler
	Application *ApplicationHandler
	Grade       *GradeHandler
	Class       *ClassHandler
	Personnel   *PersonnelHandler
	Invitation  *InvitationHandler
	Template    *TemplateHandler
	AuthService *service.AuthService
}

// Register mounts every route group under the API prefix.
func (rt *Router) Register(r *gin.Engine, prefix string) {
	api := r.Group(prefix)

	public := api.Group("/public")
	{
		public.POST("/applications", rt.Intake.Submit)
		public.GET("/track", rt.Tracking.Lookup)
		public.GET("/schools", rt.School.ListPublic)
		public.GET("/schools/:slug", rt.School.GetPublic)
		public.GET("/schools/:slug/classes", rt.Class.ListPublic)
		public.POST("/uploads", rt.Upload.Upload)
		public.POST("/register", rt.Invitation.Redeem)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/forgot-password", rt.Auth.ForgotPassword)
		auth.POST("/reset-password", rt.Auth.ResetPassword)
		auth.GET("/me", middleware.JWT(rt.AuthService), rt.Auth.Me)
	}

	staff := api.Group("", middleware.JWT(rt.AuthService), middleware.RequireStaff())
	{
		staff.GET("/applications", rt.Application.List)
		staff.GET("/applications/export", rt.Application.Export)
		staff.GET("/applications/:id", rt.Application.Get)

		staff.GET("/grades", rt.Grade.List)
		staff.GET("/classes", rt.Class.List)
		staff.GET("/my-school", rt.School.MySchool)
		staff.GET("/personnel", rt.Personnel.List)
		staff.GET("/templates", rt.Template.List)
	}

	writers := api.Group("", middleware.JWT(rt.AuthService), middleware.RequireWriters())
	{
		writers.POST("/applications/:id/action", rt.Application.Act)

		writers.POST("/grades", rt.Grade.Create)
		writers.PUT("/grades/:id", rt.Grade.Update)
		writers.DELETE("/grades/:id", rt.Grade.Delete)

		writers.POST("/classes", rt.Class.Create)
		writers.PUT("/classes/:id", rt.Class.Update)
		writers.DELETE("/classes/:id", rt.Class.Delete)

		writers.PUT("/my-school", rt.School.UpdateMySchool)
		writers.DELETE("/personnel/:id", rt.Personnel.Delete)
	}

	root := api.Group("", middleware.JWT(rt.AuthService), middleware.RequireRoles(models.RoleSuperAdmin))
	{
		root.GET("/schools", rt.School.ListAll)
		root.POST("/schools", rt.School.Create)

		root.POST("/personnel", rt.Personnel.Create)

		root.GET("/invitations", rt.Invitation.List)
		root.POST("/invitations", rt.Invitation.Create)
	}
}
