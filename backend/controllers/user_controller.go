package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/models"
	"github.com/zloomo02/LMS/backend/services"
	"github.com/zloomo02/LMS/backend/utils"
)

type UserController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Gateway services.PaymentGateway
	Log     *zap.SugaredLogger
}

func NewUserController(db *gorm.DB, cfg *config.Config, gateway services.PaymentGateway, log *zap.SugaredLogger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Gateway: gateway, Log: log}
}

func (uc *UserController) GetUserData(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User Not Found")
		}
		return utils.InternalServerError(c, "Could not load user")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// EnrolledCourses returns the caller's courses with full content; lecture
// links are not stripped here since enrollment grants access.
func (uc *UserController) EnrolledCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	if err := uc.DB.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.user_id = ?", userID).
		Preload("Educator").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.sequence_order")
		}).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.sequence_order")
		}).
		Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not load enrolled courses")
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"enrolledCourses": courses,
	})
}

type purchaseRequest struct {
	CourseID string `json:"courseId"`
}

// PurchaseCourse godoc
// @Summary Start a course checkout
// @Description Creates a pending purchase and returns the payment page URL
// @Tags user
// @Accept json
// @Produce json
// @Param request body purchaseRequest true "Course to purchase"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/purchase [post]
func (uc *UserController) PurchaseCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == "" {
		return utils.BadRequest(c, "Invalid request body")
	}

	var user models.User
	if err := uc.DB.First(&user, "id = ?", userID).Error; err != nil {
		return utils.NotFound(c, "Data Not Found")
	}
	var course models.Course
	if err := uc.DB.First(&course, "id = ?", req.CourseID).Error; err != nil {
		return utils.NotFound(c, "Data Not Found")
	}

	// Amount is fixed here; later price changes never touch this purchase.
	amount := utils.Round2(course.Price - course.Discount*course.Price/100)

	purchase := models.Purchase{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		CourseID: course.ID,
		Amount:   amount,
		Status:   models.PurchasePending,
	}
	if err := uc.DB.Create(&purchase).Error; err != nil {
		return utils.InternalServerError(c, "Could not create purchase")
	}

	// Free course: no payment flow, enroll right away.
	if amount == 0 {
		enrollment := models.Enrollment{UserID: user.ID, CourseID: course.ID}
		if err := uc.DB.FirstOrCreate(&enrollment, models.Enrollment{UserID: user.ID, CourseID: course.ID}).Error; err != nil {
			return utils.InternalServerError(c, "Could not enroll user")
		}
		if err := uc.DB.Model(&purchase).Update("status", models.PurchaseCompleted).Error; err != nil {
			return utils.InternalServerError(c, "Could not update purchase")
		}
		return c.JSON(fiber.Map{
			"success":  true,
			"enrolled": true,
		})
	}

	origin := c.Get("Origin")
	if origin == "" {
		origin = uc.Cfg.FrontendOrigin
	}

	sessionURL, err := uc.Gateway.CreateCheckoutSession(&course, purchase.ID, amount, origin)
	if err != nil {
		// The pending purchase stays behind on purpose; abandoned rows are
		// tolerated and the processor never saw this attempt.
		uc.Log.Errorw("checkout session creation failed", "purchase", purchase.ID, "error", err)
		return utils.InternalServerError(c, "Could not create payment session")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"session_url": sessionURL,
	})
}

type progressRequest struct {
	CourseID  string `json:"courseId"`
	LectureID string `json:"lectureId"`
}

// UpdateCourseProgress marks a lecture as completed. Repeating a completion
// is acknowledged without mutating anything.
func (uc *UserController) UpdateCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req progressRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == "" || req.LectureID == "" {
		return utils.BadRequest(c, "Invalid request body")
	}

	if !uc.isEnrolled(userID, req.CourseID) {
		return utils.Forbidden(c, "User has not enrolled in this course")
	}

	var progress models.CourseProgress
	err = uc.DB.First(&progress, "user_id = ? AND course_id = ?", userID, req.CourseID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = models.CourseProgress{
			UserID:           userID,
			CourseID:         req.CourseID,
			LectureCompleted: datatypes.NewJSONSlice([]string{req.LectureID}),
		}
		if err := uc.DB.Create(&progress).Error; err != nil {
			return utils.InternalServerError(c, "Could not save progress")
		}
	case err != nil:
		return utils.InternalServerError(c, "Could not load progress")
	default:
		if progress.HasLecture(req.LectureID) {
			uc.Log.Infow("lecture already completed",
				"user", userID, "course", req.CourseID, "lecture", req.LectureID)
			return c.JSON(fiber.Map{
				"success": true,
				"message": "Lecture Already Completed",
			})
		}
		progress.LectureCompleted = append(progress.LectureCompleted, req.LectureID)
		if err := uc.DB.Save(&progress).Error; err != nil {
			return utils.InternalServerError(c, "Could not save progress")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Progress Updated",
	})
}

type courseProgressQuery struct {
	CourseID string `json:"courseId"`
}

// GetCourseProgress returns the progress document for the caller. The
// completed flag is recomputed against the course's current lecture count
// on every read.
func (uc *UserController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req courseProgressQuery
	if err := c.BodyParser(&req); err != nil || req.CourseID == "" {
		return utils.BadRequest(c, "Invalid request body")
	}

	progress := models.CourseProgress{
		UserID:           userID,
		CourseID:         req.CourseID,
		LectureCompleted: datatypes.NewJSONSlice([]string{}),
	}
	err = uc.DB.First(&progress, "user_id = ? AND course_id = ?", userID, req.CourseID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.InternalServerError(c, "Could not load progress")
	}

	var totalLectures int64
	if err := uc.DB.Model(&models.Lecture{}).
		Joins("JOIN chapters ON chapters.id = lectures.chapter_id").
		Where("chapters.course_id = ?", req.CourseID).
		Count(&totalLectures).Error; err != nil {
		return utils.InternalServerError(c, "Could not load course content")
	}

	completed := totalLectures > 0 && int64(len(progress.LectureCompleted)) >= totalLectures

	return c.JSON(fiber.Map{
		"success": true,
		"progressData": fiber.Map{
			"userId":           progress.UserID,
			"courseId":         progress.CourseID,
			"lectureCompleted": progress.LectureCompleted,
			"completed":        completed,
		},
	})
}

type ratingRequest struct {
	CourseID string `json:"courseId"`
	Rating   int    `json:"rating"`
}

// AddRating stores the caller's rating for a course, overwriting any
// earlier rating from the same user.
func (uc *UserController) AddRating(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req ratingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if req.CourseID == "" || req.Rating < 1 || req.Rating > 5 {
		return utils.BadRequest(c, "Invalid rating details")
	}

	var course models.Course
	if err := uc.DB.First(&course, "id = ?", req.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course Not Found")
		}
		return utils.InternalServerError(c, "Could not load course")
	}

	if !uc.isEnrolled(userID, req.CourseID) {
		return utils.Forbidden(c, "User has not purchased this course")
	}

	rating := models.CourseRating{
		CourseID: req.CourseID,
		UserID:   userID,
		Rating:   req.Rating,
	}
	if err := uc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating"}),
	}).Create(&rating).Error; err != nil {
		return utils.InternalServerError(c, "Could not save rating")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Rating Added",
	})
}

func (uc *UserController) isEnrolled(userID, courseID string) bool {
	var count int64
	uc.DB.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count)
	return count > 0
}
