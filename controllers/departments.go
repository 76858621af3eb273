package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
)

type DepartmentController struct{}

// GetDepartments returns departments, optionally filtered by college
func (dc *DepartmentController) GetDepartments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Department{}).Preload("College")

	if collegeID := c.QueryInt("college_id"); collegeID > 0 {
		query = query.Where("college_id = ?", collegeID)
	}

	var departments []models.Department
	if err := query.Order("name ASC").Find(&departments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch departments",
		})
	}
	return c.JSON(fiber.Map{"departments": departments})
}

// GetDepartment returns a single department
func (dc *DepartmentController) GetDepartment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid department ID"})
	}

	var department models.Department
	if err := database.DB.Preload("College").First(&department, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}
	return c.JSON(fiber.Map{"department": department})
}

// CreateDepartment creates a department under a college (admin only)
func (dc *DepartmentController) CreateDepartment(c *fiber.Ctx) error {
	var req struct {
		CollegeID uint   `json:"college_id" validate:"required"`
		Name      string `json:"name" validate:"required"`
		Acronym   string `json:"acronym" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.CollegeID == 0 || req.Name == "" || req.Acronym == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "College, name and acronym are required"})
	}

	var college models.College
	if err := database.DB.First(&college, req.CollegeID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "College not found"})
	}

	var existing models.Department
	if err := database.DB.Where("college_id = ? AND acronym = ?", req.CollegeID, req.Acronym).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Department acronym already exists in this college"})
	}

	department := models.Department{
		CollegeID: req.CollegeID,
		Name:      utils.SanitizeString(req.Name),
		Acronym:   utils.SanitizeString(req.Acronym),
	}
	if err := database.DB.Create(&department).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create department"})
	}

	middleware.LogActivity(c, "CREATE", "departments", department.ID, fiber.Map{"name": department.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Department created successfully",
		"department": department,
	})
}

// UpdateDepartment updates a department (admin only)
func (dc *DepartmentController) UpdateDepartment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid department ID"})
	}

	var department models.Department
	if err := database.DB.First(&department, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
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

	if err := database.DB.Model(&department).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update department"})
	}

	middleware.LogActivity(c, "UPDATE", "departments", department.ID, updates)

	return c.JSON(fiber.Map{
		"message":    "Department updated successfully",
		"department": department,
	})
}

// DeleteDepartment removes a department with no enrolled users (admin only)
func (dc *DepartmentController) DeleteDepartment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid department ID"})
	}

	var department models.Department
	if err := database.DB.First(&department, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Department not found"})
	}

	var userCount int64
	database.DB.Model(&models.User{}).Where("department_id = ?", department.ID).Count(&userCount)
	if userCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Department still has users",
		})
	}

	if err := database.DB.Delete(&department).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete department"})
	}

	middleware.LogActivity(c, "DELETE", "departments", department.ID, fiber.Map{"name": department.Name})

	return c.JSON(fiber.Map{"message": "Department deleted successfully"})
}
