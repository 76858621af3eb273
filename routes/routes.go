package routes

import (
	"thesistrack_go/controllers"
	"thesistrack_go/middleware"
	"thesistrack_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	collegeController := &controllers.CollegeController{}
	departmentController := &controllers.DepartmentController{}
	adviserController := &controllers.AdviserController{}
	panelController := &controllers.PanelController{}
	thesisController := &controllers.ThesisController{}
	defenseController := &controllers.DefenseController{}
	notificationController := &controllers.NotificationController{}
	favoriteController := &controllers.FavoriteController{}
	logController := &controllers.LogController{}
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Public routes (no authentication required)
	public := api.Group("/public")

	// Colleges and departments are browsable without an account
	public.Get("/colleges", collegeController.GetColleges)
	public.Get("/colleges/:id", collegeController.GetCollege)
	public.Get("/departments", departmentController.GetDepartments)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Post("/register", authController.Register)
	// Allow profile retrieval via /api/auth/profile using the same JWT middleware
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	// Profile routes (authenticated users)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	// Logout - blacklist token for 24 hours
	protected.Post("/auth/logout", authController.Logout)

	// User management routes
	users := protected.Group("/users")
	users.Get("/", middleware.RequireFacultyOrAbove(), userController.GetUsers)
	users.Get("/faculty", userController.GetFaculty)
	users.Get("/:id", userController.GetUser)
	users.Put("/:id", userController.UpdateUser)
	users.Post("/:id/approve", middleware.RequireAdmin(), userController.ApproveUser)
	users.Delete("/:id", middleware.RequireAdmin(), userController.DeleteUser)
	users.Post("/:id/picture", userController.UploadProfilePicture) // Users can upload their own picture

	// College management routes
	colleges := protected.Group("/colleges")
	colleges.Get("/", collegeController.GetColleges)
	colleges.Get("/:id", collegeController.GetCollege)
	colleges.Post("/", middleware.RequireAdmin(), collegeController.CreateCollege)
	colleges.Put("/:id", middleware.RequireAdmin(), collegeController.UpdateCollege)
	colleges.Delete("/:id", middleware.RequireAdmin(), collegeController.DeleteCollege)

	// Department management routes
	departments := protected.Group("/departments")
	departments.Get("/", departmentController.GetDepartments)
	departments.Get("/:id", departmentController.GetDepartment)
	departments.Post("/", middleware.RequireAdmin(), departmentController.CreateDepartment)
	departments.Put("/:id", middleware.RequireAdmin(), departmentController.UpdateDepartment)
	departments.Delete("/:id", middleware.RequireAdmin(), departmentController.DeleteDepartment)

	// Adviser acceptance workflow
	proposals := protected.Group("/proposals")
	proposals.Post("/", middleware.RequireUserType("student"), adviserController.SubmitProposal)
	proposals.Get("/my", adviserController.GetMyProposals)
	proposals.Get("/requests", middleware.RequireFacultyOrAbove(), adviserController.GetAdviserRequests)
	proposals.Patch("/:id/respond", middleware.RequireFacultyOrAbove(), adviserController.RespondToProposal)
	proposals.Patch("/:id/adviser", middleware.RequireUserType("student"), adviserController.ChangeAdviser)
	proposals.Post("/file", adviserController.UploadProposalFile)

	// Panel assignment and review workflow
	panels := protected.Group("/panels")
	panels.Post("/assign", middleware.RequireCoordinatorOrAdmin(), panelController.AssignPanelists)
	panels.Get("/invitations", middleware.RequireFacultyOrAbove(), panelController.GetMyInvitations)
	panels.Patch("/invitations/:id/respond", middleware.RequireFacultyOrAbove(), panelController.RespondToInvitation)
	panels.Patch("/invitations/:id/replace", middleware.RequireCoordinatorOrAdmin(), panelController.ReplacePanelist)

	// Thesis management routes
	theses := protected.Group("/theses")
	theses.Get("/", thesisController.GetTheses)
	theses.Get("/my", thesisController.GetMyTheses)
	theses.Get("/:id", thesisController.GetThesis)
	theses.Post("/:id/document", thesisController.UploadDocument)
	theses.Post("/:id/promote", middleware.RequireCoordinatorOrAdmin(), thesisController.PromoteToFinal)
	theses.Get("/:id/panel", panelController.GetThesisPanel)
	theses.Post("/:id/review", middleware.RequireFacultyOrAbove(), panelController.SubmitReview)
	theses.Post("/:id/favorite", favoriteController.AddFavorite)
	theses.Delete("/:id/favorite", favoriteController.RemoveFavorite)

	// Defense scheduling routes
	defenses := protected.Group("/defenses")
	defenses.Post("/slots", middleware.RequireFacultyOrAbove(), defenseController.SearchSlots)
	defenses.Post("/", middleware.RequireCoordinatorOrAdmin(), defenseController.ScheduleDefense)
	defenses.Put("/thesis/:id", middleware.RequireCoordinatorOrAdmin(), defenseController.RescheduleDefense)
	defenses.Delete("/thesis/:id", middleware.RequireCoordinatorOrAdmin(), defenseController.CancelDefense)
	defenses.Get("/bookings", defenseController.GetBookings)
	defenses.Get("/my", defenseController.GetMySchedule)
	defenses.Get("/calendar/export", middleware.RequireFacultyOrAbove(), defenseController.ExportCalendar)

	// Favorites
	favorites := protected.Group("/favorites")
	favorites.Get("/", favoriteController.GetFavorites)

	// Notification management routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Delete("/:id", notificationController.DeleteNotification)

	// Log management routes (Admin only)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetActivityLogs)
	logs.Get("/archives", logController.GetLogArchives)
	logs.Get("/archives/:id/download", logController.DownloadLogArchive)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		// IsWebSocketUpgrade returns true if the client
		// requested upgrade to the WebSocket protocol.
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}

// SetupStaticRoutes configures static file serving
func SetupStaticRoutes(app *fiber.App) {
	// Serve static files if needed
	app.Static("/", "./public")
}
