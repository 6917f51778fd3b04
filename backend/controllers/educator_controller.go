package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/models"
	"github.com/zloomo02/LMS/backend/utils"
)

type EducatorController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewEducatorController(db *gorm.DB, cfg *config.Config) *EducatorController {
	return &EducatorController{DB: db, Cfg: cfg}
}

type lectureInput struct {
	Title         string `json:"lectureTitle"`
	Duration      int    `json:"lectureDuration"`
	URL           string `json:"lectureUrl"`
	IsPreviewFree bool   `json:"isPreviewFree"`
	Order         int    `json:"lectureOrder"`
}

type chapterInput struct {
	Title    string         `json:"chapterTitle"`
	Order    int            `json:"chapterOrder"`
	Lectures []lectureInput `json:"chapterContent"`
}

type addCourseRequest struct {
	Title       string         `json:"courseTitle"`
	Description string         `json:"courseDescription"`
	Thumbnail   string         `json:"courseThumbnail"`
	Price       float64        `json:"coursePrice"`
	Discount    float64        `json:"discount"`
	IsPublished bool           `json:"isPublished"`
	Chapters    []chapterInput `json:"courseContent"`
}

func (ec *EducatorController) AddCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var req addCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.Price < 0 || req.Discount < 0 || req.Discount > 100 {
		return utils.BadRequest(c, "Invalid course details")
	}

	course := models.Course{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Price:       req.Price,
		Discount:    req.Discount,
		IsPublished: req.IsPublished,
		EducatorID:  userID,
	}
	for _, ch := range req.Chapters {
		chapter := models.Chapter{
			ID:            uuid.NewString(),
			Title:         ch.Title,
			SequenceOrder: ch.Order,
		}
		for _, l := range ch.Lectures {
			chapter.Lectures = append(chapter.Lectures, models.Lecture{
				ID:            uuid.NewString(),
				Title:         l.Title,
				Duration:      l.Duration,
				URL:           l.URL,
				IsPreviewFree: l.IsPreviewFree,
				SequenceOrder: l.Order,
			})
		}
		course.Chapters = append(course.Chapters, chapter)
	}

	if err := ec.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"course":  course,
	})
}

func (ec *EducatorController) GetEducatorCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var courses []models.Course
	if err := ec.DB.
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.sequence_order")
		}).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.sequence_order")
		}).
		Preload("Ratings").
		Where("educator_id = ?", userID).
		Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not load courses")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"courses": courses,
	})
}
