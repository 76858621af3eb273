package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/services/notifications"
	"thesistrack_go/storage"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ThesisController struct{}

// GetTheses returns theses with optional filters and pagination
func (tc *ThesisController) GetTheses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Thesis{})

	if status := c.Query("status"); status != "" {
		if !utils.IsValidWorkflowStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}
	if thesisType := c.Query("type"); thesisType != "" {
		query = query.Where("type = ?", thesisType)
	}
	if adviserID := c.QueryInt("adviser_id"); adviserID > 0 {
		query = query.Where("adviser_id = ?", adviserID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var theses []models.Thesis
	err := query.
		Preload("Adviser").
		Preload("CoAdviser").
		Preload("Students").
		Preload("Students.Student").
		Preload("PanelReviews").
		Preload("PanelReviews.Panel").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&theses).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch theses"})
	}

	return c.JSON(fiber.Map{
		"theses": theses,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetMyTheses returns theses the current user belongs to, whatever their role
func (tc *ThesisController) GetMyTheses(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var theses []models.Thesis
	err = database.DB.
		Distinct("theses.*").
		Joins("LEFT JOIN thesis_members ON thesis_members.thesis_id = theses.id").
		Joins("LEFT JOIN panel_reviews ON panel_reviews.thesis_id = theses.id").
		Where("thesis_members.student_id = ? OR theses.adviser_id = ? OR theses.co_adviser_id = ? OR panel_reviews.panel_id = ?",
			user.ID, user.ID, user.ID, user.ID).
		Preload("Adviser").
		Preload("Students").
		Preload("Students.Student").
		Preload("PanelReviews").
		Order("theses.created_at DESC").
		Find(&theses).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch theses"})
	}

	return c.JSON(fiber.Map{"theses": theses})
}

// GetThesis returns a single thesis with its members and panel
func (tc *ThesisController) GetThesis(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var thesis models.Thesis
	err = database.DB.
		Preload("Adviser").
		Preload("CoAdviser").
		Preload("Students").
		Preload("Students.Student").
		Preload("PanelReviews").
		Preload("PanelReviews.Panel").
		First(&thesis, id).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	return c.JSON(fiber.Map{"thesis": thesis})
}

// UploadDocument uploads a new thesis document version. Only members may
// upload; a new version reopens every panel review.
func (tc *ThesisController) UploadDocument(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	var membership models.ThesisMember
	if err := database.DB.Where("thesis_id = ? AND student_id = ?", thesis.ID, user.ID).First(&membership).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only thesis members can upload documents"})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing document file"})
	}
	if !utils.IsValidFileExtension(file.Filename, []string{"pdf", "doc", "docx"}) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported document type"})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize storage service")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
	}

	url, err := storageService.UploadFile(file, storage.FolderThesisDocuments, user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to upload thesis document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload failed"})
	}

	// New document version reopens the review round
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&thesis).Updates(map[string]interface{}{
			"document": url,
			"status":   models.StatusPending,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.PanelReview{}).
			Where("thesis_id = ?", thesis.ID).
			Updates(map[string]interface{}{"status": models.StatusPending, "remarks": ""}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save document"})
	}

	tc.notifyPanel(thesis, "A new document version was uploaded for \""+thesis.Title+"\"")

	middleware.LogActivity(c, "UPDATE", "theses", thesis.ID, fiber.Map{"action": "document_upload"})

	return c.JSON(fiber.Map{
		"message":  "Document uploaded, panel reviews reopened",
		"document": url,
	})
}

// PromoteToFinal moves an approved proposal-stage thesis into the final
// stage, opening a fresh review round (coordinator/admin).
func (tc *ThesisController) PromoteToFinal(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}
	if thesis.Type != "proposal" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Thesis is already in the final stage"})
	}
	if thesis.Status != models.StatusApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Proposal must be approved before promotion"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&thesis).Updates(map[string]interface{}{
			"type":   "final",
			"status": models.StatusPending,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.PanelReview{}).
			Where("thesis_id = ?", thesis.ID).
			Updates(map[string]interface{}{"status": models.StatusPending, "remarks": ""}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to promote thesis"})
	}

	tc.notifyPanel(thesis, "\""+thesis.Title+"\" has advanced to the final stage and awaits review")

	middleware.LogActivity(c, "UPDATE", "theses", thesis.ID, fiber.Map{"action": "promote_final"})

	return c.JSON(fiber.Map{"message": "Thesis promoted to final stage"})
}

// notifyPanel fans a message out to everyone holding a review seat
func (tc *ThesisController) notifyPanel(thesis models.Thesis, message string) {
	var reviews []models.PanelReview
	if err := database.DB.Where("thesis_id = ?", thesis.ID).Find(&reviews).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load panel for notification")
		return
	}
	if len(reviews) == 0 {
		return
	}
	panelIDs := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		panelIDs = append(panelIDs, r.PanelID)
	}

	notifService := notifications.NewService()
	item := notifications.QueuedForThesis("Thesis updated", message, "info", thesis.ID, "")
	if err := notifService.EnqueueOrCreate(panelIDs, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify panel")
	}
}
