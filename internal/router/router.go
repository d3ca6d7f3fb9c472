package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/handler"
	"github.com/vconnect/portal-backend/internal/logger"
	"github.com/vconnect/portal-backend/internal/middleware"
	"github.com/vconnect/portal-backend/internal/model"
	"github.com/vconnect/portal-backend/internal/response"
	"github.com/vconnect/portal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Department  *handler.DepartmentHandler
	Class       *handler.ClassHandler
	Student     *handler.StudentHandler
	Attendance  *handler.AttendanceHandler
	Library     *handler.LibraryHandler
	Group       *handler.GroupHandler
	GroupEvents *handler.GroupEventsHandler
	Call        *handler.CallHandler
	Meeting     *handler.MeetingHandler
	Workload    *handler.WorkloadHandler
	IDCard      *handler.IDCardHandler
	Media       *handler.MediaHandler
	Dashboard   *handler.DashboardHandler
	Setting     *handler.SettingHandler
	System      *handler.SystemHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds the background cleanup of the in-memory rate limiter.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.GinMiddleware(log, response.ContextKeyRequestID))
	router.Use(middleware.Brotli())

	// Serve uploaded photos statically with aggressive caching (1 year).
	// File names are random UUIDs, so a changed photo is a new URL.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/settings", handlers.Setting.GetPublicSettings)
		publicAPI.POST("/id-cards/verify",
			middleware.RedisRateLimit(rdb, log, "idcard_verify", 60, time.Minute),
			handlers.IDCard.VerifyCard,
		)
	}

	// Rate limiter for login (20 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(ctx, 20, time.Minute)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		session := auth.Group("")
		session.Use(middleware.RequireJWT(authService), middleware.CheckSession(authService))
		session.POST("/logout", handlers.Auth.Logout)
		session.GET("/me", handlers.Auth.Me)
		session.PUT("/password", handlers.Auth.ChangePassword)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService), middleware.CheckSession(authService))
	{
		ws.GET("/groups/:group_id/stream", handlers.WS.GroupStream)
	}

	// ─── 3. API Group (JWT + Session + RBAC) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService), middleware.CheckSession(authService))

	// Users
	api.GET("/users", middleware.RequirePermission(model.PermissionUsersRead), handlers.User.ListUsers)
	api.GET("/users/:id", middleware.RequirePermission(model.PermissionUsersRead), handlers.User.GetUser)
	api.POST("/users", middleware.RequirePermission(model.PermissionUsersWrite), handlers.User.CreateUser)
	api.PUT("/users/:id", middleware.RequirePermission(model.PermissionUsersWrite), handlers.User.UpdateUser)
	api.DELETE("/users/:id", middleware.RequirePermission(model.PermissionUsersWrite), handlers.User.DeleteUser)

	// Departments
	api.GET("/departments", middleware.RequirePermission(model.PermissionDepartmentsRead), handlers.Department.ListDepartments)
	api.GET("/departments/:id", middleware.RequirePermission(model.PermissionDepartmentsRead), handlers.Department.GetDepartment)
	api.POST("/departments", middleware.RequirePermission(model.PermissionDepartmentsWrite), handlers.Department.CreateDepartment)
	api.PUT("/departments/:id", middleware.RequirePermission(model.PermissionDepartmentsWrite), handlers.Department.UpdateDepartment)
	api.DELETE("/departments/:id", middleware.RequirePermission(model.PermissionDepartmentsWrite), handlers.Department.DeleteDepartment)

	// Classes
	api.GET("/classes", middleware.RequirePermission(model.PermissionClassesRead), handlers.Class.ListClasses)
	api.GET("/classes/:id", middleware.RequirePermission(model.PermissionClassesRead), handlers.Class.GetClass)
	api.GET("/classes/:id/students", middleware.RequirePermission(model.PermissionClassesRead), handlers.Class.GetRoster)
	api.POST("/classes", middleware.RequirePermission(model.PermissionClassesWrite), handlers.Class.CreateClass)
	api.PUT("/classes/:id", middleware.RequirePermission(model.PermissionClassesWrite), handlers.Class.UpdateClass)
	api.DELETE("/classes/:id", middleware.RequirePermission(model.PermissionClassesWrite), handlers.Class.DeleteClass)

	// Students
	api.GET("/students/me", middleware.RequireRole(model.RoleStudent), handlers.Student.GetMyProfile)
	api.GET("/students", middleware.RequirePermission(model.PermissionStudentsRead), handlers.Student.ListStudents)
	api.GET("/students/:id", middleware.RequirePermission(model.PermissionStudentsRead), handlers.Student.GetStudent)
	api.POST("/students", middleware.RequirePermission(model.PermissionStudentsWrite), handlers.Student.CreateStudent)
	api.POST("/students/import", middleware.RequirePermission(model.PermissionStudentsWrite), handlers.Student.ImportStudents)
	api.PUT("/students/:id", middleware.RequirePermission(model.PermissionStudentsWrite), handlers.Student.UpdateStudent)
	api.DELETE("/students/:id", middleware.RequirePermission(model.PermissionStudentsWrite), handlers.Student.DeleteStudent)

	// Attendance
	attendance := api.Group("/attendance")
	{
		attendance.GET("/me", middleware.RequireRole(model.RoleStudent), handlers.Attendance.MyAttendance)
		attendance.POST("/mark", middleware.RequirePermission(model.PermissionAttendanceWrite), handlers.Attendance.MarkAttendance)
		attendance.GET("", middleware.RequirePermission(model.PermissionAttendanceRead), handlers.Attendance.ListAttendance)
		attendance.GET("/classes/:class_id/summary", middleware.RequirePermission(model.PermissionAttendanceRead), handlers.Attendance.ClassSummary)
		attendance.GET("/classes/:class_id/daily", middleware.RequirePermission(model.PermissionAttendanceRead), handlers.Attendance.ClassDaily)
		attendance.GET("/classes/:class_id/export", middleware.RequirePermission(model.PermissionAttendanceRead), handlers.Attendance.ExportClass)
	}

	// Library
	library := api.Group("/library")
	{
		library.GET("/me", middleware.RequireRole(model.RoleStudent), handlers.Library.MyLibrary)

		library.GET("/books", middleware.RequirePermission(model.PermissionLibraryRead), handlers.Library.ListBooks)
		library.GET("/books/:id", middleware.RequirePermission(model.PermissionLibraryRead), handlers.Library.GetBook)
		library.POST("/books", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.CreateBook)
		library.PUT("/books/:id", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.UpdateBook)
		library.DELETE("/books/:id", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.DeleteBook)

		library.GET("/issues", middleware.RequirePermission(model.PermissionLibraryRead), handlers.Library.ListIssues)
		library.GET("/issues/:id", middleware.RequirePermission(model.PermissionLibraryRead), handlers.Library.GetIssue)
		library.POST("/issues", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.IssueBook)
		library.POST("/issues/:id/return", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.ReturnBook)
		library.POST("/issues/:id/pay", middleware.RequirePermission(model.PermissionLibraryWrite), handlers.Library.PayFine)
		library.GET("/fines", middleware.RequirePermission(model.PermissionLibraryRead), handlers.Library.PendingFines)
	}

	// Groups, messages and calls. Membership is enforced by the services.
	groups := api.Group("/groups")
	{
		groups.GET("", handlers.Group.ListMyGroups)
		groups.POST("", middleware.RequirePermission(model.PermissionGroupsWrite), handlers.Group.CreateGroup)
		groups.GET("/:id", handlers.Group.GetGroup)
		groups.PUT("/:id", handlers.Group.UpdateGroup)
		groups.DELETE("/:id", handlers.Group.DeleteGroup)
		groups.GET("/:id/events", handlers.GroupEvents.StreamEvents)

		groups.GET("/:id/members", handlers.Group.ListMembers)
		groups.POST("/:id/members", handlers.Group.AddMembers)
		groups.DELETE("/:id/members/:user_id", handlers.Group.RemoveMember)
		groups.PUT("/:id/members/:user_id/role", handlers.Group.SetMemberRole)
		groups.POST("/:id/leave", handlers.Group.LeaveGroup)

		groups.GET("/:id/messages", handlers.Group.ListMessages)
		groups.POST("/:id/messages", handlers.Group.SendMessage)
		groups.PUT("/:id/messages/:message_id", handlers.Group.EditMessage)
		groups.DELETE("/:id/messages/:message_id", handlers.Group.DeleteMessage)
		groups.POST("/:id/messages/:message_id/reactions", handlers.Group.ToggleReaction)

		groups.GET("/:id/calls", handlers.Call.CallHistory)
		groups.GET("/:id/calls/active", handlers.Call.ActiveCall)
		groups.POST("/:id/calls", handlers.Call.StartCall)
		groups.POST("/:id/calls/:call_id/end", handlers.Call.EndCall)
	}

	// Meetings
	api.GET("/meetings", middleware.RequireRole(model.RoleAdmin, model.RoleFaculty), handlers.Meeting.ListMyMeetings)
	api.GET("/meetings/:id", middleware.RequireRole(model.RoleAdmin, model.RoleFaculty), handlers.Meeting.GetMeeting)
	api.POST("/meetings", middleware.RequirePermission(model.PermissionMeetingsWrite), handlers.Meeting.CreateMeeting)
	api.DELETE("/meetings/:id", middleware.RequirePermission(model.PermissionMeetingsWrite), handlers.Meeting.DeleteMeeting)

	// Workload
	workload := api.Group("/workload")
	{
		workload.GET("/me", middleware.RequireRole(model.RoleFaculty), handlers.Workload.GetMyWorkload)
		workload.GET("/faculty/:id", middleware.RequireRole(model.RoleAdmin, model.RoleFaculty), handlers.Workload.GetFacultyWorkload)
		workload.GET("/report", middleware.RequirePermission(model.PermissionWorkloadRead), handlers.Workload.GetReport)

		workload.GET("/assignments", middleware.RequirePermission(model.PermissionWorkloadRead), handlers.Workload.ListAssignments)
		workload.GET("/assignments/:id", middleware.RequirePermission(model.PermissionWorkloadRead), handlers.Workload.GetAssignment)
		workload.POST("/assignments", middleware.RequirePermission(model.PermissionWorkloadWrite), handlers.Workload.CreateAssignment)
		workload.PUT("/assignments/:id", middleware.RequirePermission(model.PermissionWorkloadWrite), handlers.Workload.UpdateAssignment)
		workload.DELETE("/assignments/:id", middleware.RequirePermission(model.PermissionWorkloadWrite), handlers.Workload.DeleteAssignment)
	}

	// ID cards
	idCards := api.Group("/id-cards")
	{
		idCards.GET("/me", handlers.IDCard.MyCard)
		idCards.GET("/me/qr.png", middleware.NoStore(), handlers.IDCard.MyCardQR)
		idCards.POST("/:user_id", middleware.RequirePermission(model.PermissionIDCardsWrite), handlers.IDCard.IssueCard)
		idCards.DELETE("/:user_id", middleware.RequirePermission(model.PermissionIDCardsWrite), handlers.IDCard.RevokeCard)
	}

	// Media, dashboard, settings, system
	api.POST("/media/photo", middleware.RequirePermission(model.PermissionMediaUpload), handlers.Media.UploadPhoto)
	api.GET("/dashboard", middleware.RequirePermission(model.PermissionDashboardRead), handlers.Dashboard.GetDashboardData)
	api.GET("/settings", middleware.RequirePermission(model.PermissionSettingsRead), handlers.Setting.GetAllSettings)
	api.PUT("/settings", middleware.RequirePermission(model.PermissionSettingsWrite), handlers.Setting.UpdateSettings)
	api.GET("/system/metrics", middleware.RequireRole(model.RoleAdmin), handlers.System.SystemMetricsSSE)

	return router
}
