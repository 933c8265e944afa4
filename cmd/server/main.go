package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"pharmassoc_api/internal/handlers"
	"pharmassoc_api/internal/middleware"
	"pharmassoc_api/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; caching and evaluator locking degrade gracefully
	cache, err := services.NewRedisCache(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
	}

	// Services
	ledger := services.NewLedgerService(db)
	assigner := services.NewAssignmentService(db)
	attendance := services.NewAttendanceService(db, cache)
	payments := services.NewPaymentService(db, ledger, services.NewMidtransService())

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient, db)
	userHandler := handlers.NewUserHandler(db)
	pharmacyHandler := handlers.NewPharmacyHandler(db)
	dueTypeHandler := handlers.NewDueTypeHandler(db)
	dueHandler := handlers.NewDueHandler(db, cache, ledger, assigner, payments)
	paymentHandler := handlers.NewPaymentHandler(db, ledger, payments)
	eventHandler := handlers.NewEventHandler(db, attendance)

	// Public routes
	e.POST("/api/auth/login", authHandler.HandleLogin)
	e.POST("/api/auth/logout", authHandler.HandleLogout)
	e.POST("/api/payments/midtrans/callback", paymentHandler.HandleMidtransCallback)

	// Authenticated routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth(authClient, db))
	admin := api.Group("", middleware.RequireAdmin())

	api.GET("/auth/me", authHandler.HandleMe)

	// Members
	admin.GET("/users", userHandler.HandleListUsers)
	admin.POST("/users", userHandler.HandleCreateUser)
	admin.GET("/users/:id", userHandler.HandleGetUser)
	admin.PUT("/users/:id", userHandler.HandleUpdateUser)

	// Pharmacies
	api.GET("/pharmacies", pharmacyHandler.HandleListPharmacies)
	api.GET("/pharmacies/:id", pharmacyHandler.HandleGetPharmacy)
	admin.POST("/pharmacies", pharmacyHandler.HandleCreatePharmacy)
	admin.PUT("/pharmacies/:id", pharmacyHandler.HandleUpdatePharmacy)

	// Due types
	api.GET("/due-types", dueTypeHandler.HandleListDueTypes)
	api.GET("/due-types/:id", dueTypeHandler.HandleGetDueType)
	admin.POST("/due-types", dueTypeHandler.HandleCreateDueType)
	admin.PUT("/due-types/:id", dueTypeHandler.HandleUpdateDueType)
	admin.DELETE("/due-types/:id", dueTypeHandler.HandleDeleteDueType)

	// Dues ledger
	api.GET("/dues", dueHandler.HandleListDues)
	api.GET("/dues/:id", dueHandler.HandleGetDue)
	api.POST("/dues/:id/pay", dueHandler.HandleSubmitPayment)
	api.POST("/dues/:id/pay/online", dueHandler.HandleInitiateOnlinePayment)
	admin.POST("/dues", dueHandler.HandleCreateDue)
	admin.POST("/dues/bulk-assign", dueHandler.HandleBulkAssign)
	admin.POST("/dues/:id/penalty", dueHandler.HandleAddPenalty)
	admin.GET("/dues/analytics", dueHandler.HandleAnalytics)

	// Payment review
	admin.GET("/payments", paymentHandler.HandleListSubmissions)
	admin.POST("/payments/:id/approve", paymentHandler.HandleApprovePayment)
	admin.POST("/payments/:id/reject", paymentHandler.HandleRejectPayment)

	// Events and attendance
	api.GET("/events", eventHandler.HandleListEvents)
	api.GET("/events/:id", eventHandler.HandleGetEvent)
	api.POST("/events/:id/register", eventHandler.HandleRegisterAttendee)
	admin.POST("/events", eventHandler.HandleCreateEvent)
	admin.PUT("/events/:id", eventHandler.HandleUpdateEvent)
	admin.PUT("/events/:id/attendance", eventHandler.HandleMarkAttendance)
	admin.GET("/events/:id/attendees/export", eventHandler.HandleExportAttendees)
	admin.POST("/events/attendance/calculate-penalties", eventHandler.HandleEvaluateAttendance)
	admin.GET("/events/attendance/report", eventHandler.HandleAttendanceReport)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
