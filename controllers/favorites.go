package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FavoriteController struct{}

// GetFavorites returns the current user's bookmarked theses
func (fc *FavoriteController) GetFavorites(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var favorites []models.Favorite
	err = database.DB.
		Where("user_id = ?", user.ID).
		Preload("Thesis").
		Preload("Thesis.Adviser").
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch favorites"})
	}

	return c.JSON(fiber.Map{"favorites": favorites})
}

// AddFavorite bookmarks a thesis and bumps its rating count
func (fc *FavoriteController) AddFavorite(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, thesisID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	var existing models.Favorite
	if err := database.DB.Where("user_id = ? AND thesis_id = ?", user.ID, thesis.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Thesis already bookmarked"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		favorite := models.Favorite{UserID: user.ID, ThesisID: thesis.ID}
		if err := tx.Create(&favorite).Error; err != nil {
			return err
		}
		return tx.Model(&thesis).Update("rating_count", gorm.Expr("rating_count + 1")).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to bookmark thesis"})
	}

	middleware.LogActivity(c, "CREATE", "favorites", thesis.ID, nil)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thesis bookmarked"})
}

// RemoveFavorite removes a bookmark and lowers the rating count
func (fc *FavoriteController) RemoveFavorite(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND thesis_id = ?", user.ID, thesisID).Delete(&models.Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Thesis{}).
			Where("id = ? AND rating_count > 0", thesisID).
			Update("rating_count", gorm.Expr("rating_count - 1")).Error
	})
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Bookmark not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove bookmark"})
	}

	middleware.LogActivity(c, "DELETE", "favorites", uint(thesisID), nil)

	return c.JSON(fiber.Map{"message": "Bookmark removed"})
}
