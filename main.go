package main

import (
	"log"
	"os"
	"time"

	"ambassador-portal-server/handlers/admin"
	"ambassador-portal-server/handlers/auth"
	"ambassador-portal-server/handlers/notifications"
	"ambassador-portal-server/handlers/referrals"
	"ambassador-portal-server/migrations"
	"ambassador-portal-server/seed"
	"ambassador-portal-server/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("PORTAL_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()

	migrations.MigrateLedger()
	migrations.MigrateNotifications()

	// Seed Initial Data
	if err := seed.SeedBenefitSlabs(); err != nil {
		log.Fatalf("Failed to seed benefit slabs: %v", err)
	}
	if err := seed.SeedAcademicYear(); err != nil {
		log.Fatalf("Failed to seed academic year: %v", err)
	}

	// Public routes
	r.POST("/register", auth.Register)
	r.POST("/verify-otp", auth.VerifyOTP)
	r.POST("/login", auth.Login)
	r.POST("/refresh-token", auth.RefreshToken)
	r.POST("/request-otp", auth.RequestOTP)
	r.POST("/verify-otp-reset", auth.VerifyOTPReset)
	r.POST("/reset-password", auth.ResetPassword)

	// Ambassador routes
	protected := r.Group("/", auth.AuthMiddleware())
	protected.POST("/logout", auth.Logout)
	protected.POST("/save-push-token", auth.SavePushToken)
	protected.POST("/referrals", referrals.SubmitReferral)
	protected.GET("/referrals", referrals.GetUserReferrals)
	protected.GET("/referrals/benefit", referrals.GetBenefitSummary)
	notifications.RegisterNotificationsRoutes(protected)

	// Admin routes
	adminGroup := r.Group("/admin", auth.AuthMiddleware(), auth.AdminMiddleware())
	adminGroup.GET("/leads", admin.ListLeads)
	adminGroup.PUT("/leads/:id/confirm", admin.ConfirmLead)
	adminGroup.PUT("/leads/:id/reject", admin.RejectLead)
	adminGroup.GET("/academic-years", admin.ListAcademicYears)
	adminGroup.POST("/academic-years", admin.UpsertAcademicYear)
	adminGroup.GET("/benefit-slabs", admin.ListBenefitSlabs)
	adminGroup.PUT("/benefit-slabs", admin.ReplaceBenefitSlabs)
	adminGroup.POST("/reconcile", admin.RunReconciliation)
	adminGroup.POST("/reconcile/:id", admin.ReconcileAmbassador)
	adminGroup.GET("/audit-logs", admin.ListAuditLogs)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
