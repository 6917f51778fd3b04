package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/zloomo02/LMS/backend/config"
	"github.com/zloomo02/LMS/backend/models"
	"github.com/zloomo02/LMS/backend/utils"
)

type CourseController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCourseController(db *gorm.DB, cfg *config.Config) *CourseController {
	return &CourseController{DB: db, Cfg: cfg}
}

// GetAllCourses godoc
// @Summary List published courses
// @Description Returns all published courses without their content
// @Tags course
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /course/all [get]
func (cc *CourseController) GetAllCourses(c *fiber.Ctx) error {
	var courses []models.Course
	if err := cc.DB.Preload("Educator").Preload("Ratings").
		Where("is_published = ?", true).
		Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not load courses")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":                course.ID,
			"courseTitle":       course.Title,
			"courseDescription": course.Description,
			"courseThumbnail":   course.Thumbnail,
			"coursePrice":       course.Price,
			"discount":          course.Discount,
			"educator":          course.Educator,
			"courseRatings":     course.Ratings,
			"rating":            models.AverageRating(course.Ratings),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"courses": result,
	})
}

func (cc *CourseController) GetCourseByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var course models.Course
	err := cc.DB.
		Preload("Educator").
		Preload("Ratings").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.sequence_order")
		}).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lectures.sequence_order")
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course Not Found")
		}
		return utils.InternalServerError(c, "Could not load course")
	}

	// Content locators stay hidden on the public route unless the lecture
	// is marked as a free preview.
	for ci := range course.Chapters {
		for li := range course.Chapters[ci].Lectures {
			if !course.Chapters[ci].Lectures[li].IsPreviewFree {
				course.Chapters[ci].Lectures[li].URL = ""
			}
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"courseData": course,
		"rating":     models.AverageRating(course.Ratings),
	})
}
