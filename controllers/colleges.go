package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type CollegeController struct{}

// GetColleges returns all colleges with their departments
func (cc *CollegeController) GetColleges(c *fiber.Ctx) error {
	var colleges []models.College
	if err := database.DB.Preload("Departments").Order("name ASC").Find(&colleges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch colleges",
		})
	}
	return c.JSON(fiber.Map{"colleges": colleges})
}

// GetCollege returns a single college
func (cc *CollegeController) GetCollege(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid college ID"})
	}

	var college models.College
	if err := database.DB.Preload("Departments").First(&college, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "College not found"})
	}
	return c.JSON(fiber.Map{"college": college})
}

// CreateCollege creates a new college (admin only)
func (cc *CollegeController) CreateCollege(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name" validate:"required"`
		Acronym string `json:"acronym" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Acronym == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and acronym are required"})
	}

	var existing models.College
	if err := database.DB.Where("acronym = ?", req.Acronym).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "College acronym already exists"})
	}

	college := models.College{
		Name:    utils.SanitizeString(req.Name),
		Acronym: utils.SanitizeString(req.Acronym),
	}
	if err := database.DB.Create(&college).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create college"})
	}

	middleware.LogActivity(c, "CREATE", "colleges", college.ID, fiber.Map{"name": college.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "College created successfully",
		"college": college,
	})
}

// UpdateCollege updates a college (admin only)
func (cc *CollegeController) UpdateCollege(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid college ID"})
	}

	var college models.College
	if err := database.DB.First(&college, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "College not found"})
	}

	var req struct {
		Name    *string `json:"name"`
		Acronym *string `json:"acronym"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = utils.SanitizeString(*req.Name)
	}
	if req.Acronym != nil {
		updates["acronym"] = utils.SanitizeString(*req.Acronym)
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No fields to update"})
	}

	if err := database.DB.Model(&college).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update college"})
	}

	middleware.LogActivity(c, "UPDATE", "colleges", college.ID, updates)

	return c.JSON(fiber.Map{
		"message": "College updated successfully",
		"college": college,
	})
}

// DeleteCollege removes a college that has no departments (admin only)
func (cc *CollegeController) DeleteCollege(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid college ID"})
	}

	var college models.College
	if err := database.DB.First(&college, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "College not found"})
	}

	var departmentCount int64
	database.DB.Model(&models.Department{}).Where("college_id = ?", college.ID).Count(&departmentCount)
	if departmentCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "College still has departments",
		})
	}

	if err := database.DB.Delete(&college).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete college"})
	}

	middleware.LogActivity(c, "DELETE", "colleges", college.ID, fiber.Map{"name": college.Name})

	return c.JSON(fiber.Map{"message": "College deleted successfully"})
}
