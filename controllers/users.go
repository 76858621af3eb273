package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/storage"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UserController struct{}

// GetUsers returns users with optional filters and pagination
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.User{})

	if userType := c.Query("user_type"); userType != "" {
		query = query.Where("user_type = ?", userType)
	}
	if collegeID := c.QueryInt("college_id"); collegeID > 0 {
		query = query.Where("college_id = ?", collegeID)
	}
	if departmentID := c.QueryInt("department_id"); departmentID > 0 {
		query = query.Where("department_id = ?", departmentID)
	}
	if approved := c.Query("approved"); approved != "" {
		query = query.Where("approved = ?", approved == "true")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR username LIKE ? OR email LIKE ?",
			like, like, like, like)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.
		Preload("Department").
		Preload("College").
		Order("last_name ASC, first_name ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetFaculty returns approved faculty members, used to pick advisers and panelists
func (uc *UserController) GetFaculty(c *fiber.Ctx) error {
	var faculty []models.User
	err := database.DB.
		Where("user_type = ? AND approved = ?", "faculty", true).
		Preload("Department").
		Order("last_name ASC, first_name ASC").
		Find(&faculty).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch faculty",
		})
	}

	short := make([]utils.UserShort, 0, len(faculty))
	for _, f := range faculty {
		short = append(short, utils.ToUserShort(f))
	}

	return c.JSON(fiber.Map{"faculty": short})
}

// GetUser returns a single user by ID
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.Preload("Department").Preload("College").First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateUser updates a user's editable fields. Users may edit themselves;
// admins may edit anyone.
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	currentUser, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if currentUser.UserType != "admin" && currentUser.ID != uint(id) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Cannot update another user's profile",
		})
	}

	var target models.User
	if err := database.DB.First(&target, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		FirstName    *string `json:"firstname"`
		MiddleName   *string `json:"middlename"`
		LastName     *string `json:"lastname"`
		Suffix       *string `json:"suffix"`
		Email        *string `json:"email"`
		DepartmentID *uint   `json:"department_id"`
		CollegeID    *uint   `json:"college_id"`
		UserType     *string `json:"user_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = utils.SanitizeString(*req.FirstName)
	}
	if req.MiddleName != nil {
		updates["middle_name"] = utils.SanitizeString(*req.MiddleName)
	}
	if req.LastName != nil {
		updates["last_name"] = utils.SanitizeString(*req.LastName)
	}
	if req.Suffix != nil {
		updates["suffix"] = utils.SanitizeString(*req.Suffix)
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.DepartmentID != nil {
		updates["department_id"] = *req.DepartmentID
	}
	if req.CollegeID != nil {
		updates["college_id"] = *req.CollegeID
	}

	// Only admins may change the account type
	if req.UserType != nil {
		if currentUser.UserType != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only admins can change account types",
			})
		}
		if !utils.IsValidUserType(*req.UserType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user type"})
		}
		updates["user_type"] = *req.UserType
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No fields to update"})
	}

	if err := database.DB.Model(&target).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	middleware.LogActivity(c, "UPDATE", "users", target.ID, updates)

	database.DB.Preload("Department").Preload("College").First(&target, target.ID)
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    target,
	})
}

// ApproveUser lets an admin approve a pending account
func (uc *UserController) ApproveUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if user.Approved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already approved"})
	}

	if err := database.DB.Model(&user).Update("approved", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to approve user",
		})
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"action": "approve"})

	return c.JSON(fiber.Map{
		"message": "User approved successfully",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"approved": true,
		},
	})
}

// DeleteUser soft-deletes a user account
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	middleware.LogActivity(c, "DELETE", "users", user.ID, fiber.Map{"username": user.Username})

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// UploadProfilePicture uploads an avatar to S3 and stores the URL
func (uc *UserController) UploadProfilePicture(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	file, err := c.FormFile("picture")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing picture file"})
	}

	if !utils.IsValidFileExtension(file.Filename, []string{"jpg", "jpeg", "png", "webp"}) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported image type"})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize storage service")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
	}

	url, err := storageService.UploadFile(file, storage.FolderProfilePictures, user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to upload profile picture")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload failed"})
	}

	// Best-effort cleanup of the previous picture
	if user.ProfilePicture != "" {
		if err := storageService.DeleteFile(user.ProfilePicture); err != nil {
			logrus.WithError(err).Warn("Failed to delete previous profile picture")
		}
	}

	if err := database.DB.Model(user).Update("profile_picture", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save picture URL"})
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{"action": "profile_picture"})

	return c.JSON(fiber.Map{
		"message":         "Profile picture updated",
		"profile_picture": url,
	})
}
