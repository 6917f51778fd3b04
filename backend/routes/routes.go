package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/controllers"
	"github.com/zloomo02/LMS/backend/middleware"
	"github.com/zloomo02/LMS/backend/services"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger, gateway services.PaymentGateway, verifier services.IdentityVerifier) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API Working")
	})

	// Webhooks are authenticated by signature, not by user token.
	webhookController := controllers.NewWebhookController(db, cfg, gateway, verifier, log)
	app.Post("/clerk", webhookController.ClerkWebhook)
	app.Post("/stripe", webhookController.StripeWebhook)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// Course routes
	courseController := controllers.NewCourseController(db, cfg)
	course := app.Group("/api/course")
	course.Get("/all", courseController.GetAllCourses)
	course.Get("/:id", courseController.GetCourseByID)

	// User routes
	userController := controllers.NewUserController(db, cfg, gateway, log)
	user := app.Group("/api/user", authMiddleware)
	user.Get("/data", userController.GetUserData)
	user.Get("/enrolled-courses", userController.EnrolledCourses)
	user.Post("/purchase", userController.PurchaseCourse)
	user.Post("/update-course-progress", userController.UpdateCourseProgress)
	user.Post("/get-course-progress", userController.GetCourseProgress)
	user.Post("/add-rating", userController.AddRating)

	// Educator routes
	educatorController := controllers.NewEducatorController(db, cfg)
	educator := app.Group("/api/educator", authMiddleware)
	educator.Post("/add-course", educatorController.AddCourse)
	educator.Get("/courses", educatorController.GetEducatorCourses)
}
