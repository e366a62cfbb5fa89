package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/credit-tracker-api/api/swagger"
	"github.com/noah-isme/credit-tracker-api/internal/handler"
	"github.com/noah-isme/credit-tracker-api/internal/middleware"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	"github.com/noah-isme/credit-tracker-api/pkg/config"
	"github.com/noah-isme/credit-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/credit-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/credit-tracker-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Me         *handler.MeHandler
	Course     *handler.CourseHandler
	Completion *handler.CompletionHandler
	Credit     *handler.CreditHandler
	Program    *handler.ProgramHandler
	Student    *handler.StudentHandler
	Admin      *handler.AdminHandler
	Dashboard  *handler.DashboardHandler
	Metrics    *handler.MetricsHandler
}

// Dependencies carries the cross-cutting collaborators of the router.
type Dependencies struct {
	Resolver middleware.CallerResolver
	Auditor  middleware.AuditRecorder
	Observer middleware.RequestObserver
	Logger   *zap.Logger
}

// New builds the gin engine with every route of the API.
func New(cfg *config.Config, h Handlers, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Metrics(deps.Observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	cookie := cfg.Cookie.Name
	anyCaller := middleware.Authenticate(deps.Resolver, cookie, "")
	studentOnly := middleware.Authenticate(deps.Resolver, cookie, models.IdentityStudent)
	adminOnly := middleware.Authenticate(deps.Resolver, cookie, models.IdentityAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Auditor, deps.Logger, action, resource)
	}

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)

	api.GET("/exports/:token", h.Credit.Download)

	me := api.Group("/me", studentOnly)
	me.GET("", h.Me.Profile)
	me.PUT("/profile", h.Me.UpdateProfile)
	me.PUT("/semester", h.Me.SelectSemester)
	me.GET("/courses", h.Me.Courses)

	authed := api.Group("", anyCaller)
	authed.GET("/students/:id/credits", h.Credit.Summary)
	authed.GET("/students/:id/credits/export", h.Credit.Export)
	authed.POST("/students/:id/credits/export-link", h.Credit.ExportLink)
	authed.GET("/students/:id/completions", h.Completion.List)
	authed.PATCH("/courses/completion", audit(models.AuditActionCompletionEdit, "completion"), h.Completion.Toggle)
	authed.GET("/courses", h.Course.List)
	authed.GET("/courses/:id", h.Course.Get)
	authed.GET("/basket-credits", h.Credit.BasketCredits)
	authed.GET("/program/verticals", h.Program.Verticals)
	authed.GET("/program/requirements", h.Program.Requirements)

	courses := api.Group("/courses", adminOnly, middleware.RequirePermission(models.PermCoursesManage))
	courses.POST("", audit(models.AuditActionCourseCreate, "course"), h.Course.Create)
	courses.PUT("/:id", audit(models.AuditActionCourseUpdate, "course"), h.Course.Update)
	courses.DELETE("/:id", audit(models.AuditActionCourseDelete, "course"), h.Course.Delete)

	adminAuth := api.Group("/admin/auth")
	adminAuth.POST("/login", h.Auth.AdminLogin)
	adminAuth.POST("/bootstrap", h.Auth.Bootstrap)
	adminAuth.GET("/me", adminOnly, h.Admin.Me)

	admin := api.Group("/admin", adminOnly)

	program := admin.Group("/program", middleware.RequirePermission(models.PermProgramManage))
	program.POST("/verticals", audit(models.AuditActionProgramUpdate, "vertical"), h.Program.CreateVertical)
	program.POST("/baskets", audit(models.AuditActionProgramUpdate, "basket"), h.Program.CreateBasket)
	program.PUT("/requirements", audit(models.AuditActionProgramUpdate, "requirement"), h.Program.UpsertRequirement)

	students := admin.Group("/students", middleware.RequirePermission(models.PermStudentsManage))
	students.GET("", h.Student.List)
	students.GET("/:id", h.Student.Get)
	students.POST("", audit(models.AuditActionStudentCreate, "student"), h.Student.Create)
	students.PUT("/:id", audit(models.AuditActionStudentUpdate, "student"), h.Student.Update)
	students.DELETE("/:id", audit(models.AuditActionStudentDelete, "student"), h.Student.Delete)

	admins := admin.Group("/admins", middleware.RequirePermission(models.PermAdminsManage))
	admins.GET("", h.Admin.List)
	admins.GET("/:id", h.Admin.Get)
	admins.POST("", audit(models.AuditActionAdminCreate, "admin"), h.Admin.Create)
	admins.PUT("/:id", audit(models.AuditActionAdminUpdate, "admin"), h.Admin.Update)
	admins.DELETE("/:id", audit(models.AuditActionAdminDelete, "admin"), h.Admin.Deactivate)

	admin.GET("/roles", middleware.RequirePermission(models.PermAdminsManage), h.Admin.Roles)
	admin.GET("/dashboard", middleware.RequirePermission(models.PermReportsView), h.Dashboard.Admin)

	return r
}
