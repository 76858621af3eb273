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

// AdviserController handles adviser acceptance requests: the first sign-off a
// thesis proposal needs before panel assignment.
type AdviserController struct{}

// SubmitProposal files an adviser acceptance request. A proposal with a
// co-adviser produces two rows sharing the same students and title, one per
// signer, so each can respond independently.
func (ac *AdviserController) SubmitProposal(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}
	if student.UserType != "student" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can submit proposals"})
	}

	var req struct {
		Student2ID   *uint  `json:"student2_id"`
		Student3ID   *uint  `json:"student3_id"`
		AdviserID    uint   `json:"adviser_id" validate:"required"`
		CoAdviserID  *uint  `json:"co_adviser_id"`
		ProposeTitle string `json:"propose_title" validate:"required"`
		ThesisFile   string `json:"thesis_file"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.AdviserID == 0 || req.ProposeTitle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Adviser and proposal title are required"})
	}

	// The adviser must be an approved faculty member
	var adviser models.User
	if err := database.DB.Where("id = ? AND user_type = ? AND approved = ?", req.AdviserID, "faculty", true).First(&adviser).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Adviser must be an approved faculty member"})
	}
	if req.CoAdviserID != nil {
		if *req.CoAdviserID == req.AdviserID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Co-adviser must differ from adviser"})
		}
		var coAdviser models.User
		if err := database.DB.Where("id = ? AND user_type = ? AND approved = ?", *req.CoAdviserID, "faculty", true).First(&coAdviser).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Co-adviser must be an approved faculty member"})
		}
	}

	// One live proposal per student group
	var pendingCount int64
	database.DB.Model(&models.AdviserAcceptance{}).
		Where("student1_id = ? AND status = ?", student.ID, models.StatusPending).
		Count(&pendingCount)
	if pendingCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A proposal is already awaiting adviser response"})
	}

	title := utils.SanitizeString(req.ProposeTitle)
	records := []models.AdviserAcceptance{{
		Student1ID:   student.ID,
		Student2ID:   req.Student2ID,
		Student3ID:   req.Student3ID,
		AdviserID:    req.AdviserID,
		CoAdviserID:  req.CoAdviserID,
		Role:         "adviser",
		ProposeTitle: title,
		ThesisFile:   req.ThesisFile,
		Status:       models.StatusPending,
	}}
	if req.CoAdviserID != nil {
		records = append(records, models.AdviserAcceptance{
			Student1ID:   student.ID,
			Student2ID:   req.Student2ID,
			Student3ID:   req.Student3ID,
			AdviserID:    *req.CoAdviserID,
			CoAdviserID:  req.CoAdviserID,
			Role:         "coAdviser",
			ProposeTitle: title,
			ThesisFile:   req.ThesisFile,
			Status:       models.StatusPending,
		})
	}

	if err := database.DB.Create(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit proposal"})
	}

	// Notify every signer
	notifService := notifications.NewService()
	for _, r := range records {
		item := notifications.Queued(
			"New adviser request",
			"You have been requested to advise the proposal \""+title+"\"",
			"info",
		)
		if err := notifService.EnqueueOrCreate([]uint{r.AdviserID}, item); err != nil {
			logrus.WithError(err).Warn("Failed to notify adviser of new proposal")
		}
	}

	middleware.LogActivity(c, "CREATE", "adviser-acceptances", records[0].ID, fiber.Map{
		"propose_title": title,
		"adviser_id":    req.AdviserID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Proposal submitted",
		"acceptances": records,
	})
}

// GetMyProposals returns the current student's submitted proposals
func (ac *AdviserController) GetMyProposals(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var acceptances []models.AdviserAcceptance
	err = database.DB.
		Where("student1_id = ? OR student2_id = ? OR student3_id = ?", student.ID, student.ID, student.ID).
		Preload("Adviser").
		Order("created_at DESC").
		Find(&acceptances).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch proposals"})
	}

	return c.JSON(fiber.Map{"acceptances": acceptances})
}

// GetAdviserRequests returns sign-off requests addressed to the current faculty member
func (ac *AdviserController) GetAdviserRequests(c *fiber.Ctx) error {
	adviser, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Where("adviser_id = ?", adviser.ID)
	if status := c.Query("status"); status != "" {
		if !utils.IsValidWorkflowStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}

	var acceptances []models.AdviserAcceptance
	err = query.
		Preload("Student1").
		Preload("Student2").
		Preload("Student3").
		Order("created_at DESC").
		Find(&acceptances).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch requests"})
	}

	return c.JSON(fiber.Map{"acceptances": acceptances})
}

// RespondToProposal records the adviser's verdict. When every signer on the
// proposal has approved, the thesis record is created and the students are
// enrolled as members.
func (ac *AdviserController) RespondToProposal(c *fiber.Ctx) error {
	adviser, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid acceptance ID"})
	}

	var req struct {
		Status  string `json:"status" validate:"required"`
		Remarks string `json:"remarks"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Status must be approved or rejected"})
	}

	var acceptance models.AdviserAcceptance
	if err := database.DB.First(&acceptance, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Acceptance request not found"})
	}
	if acceptance.AdviserID != adviser.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Request is addressed to another adviser"})
	}
	if acceptance.Status != models.StatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Request has already been answered"})
	}

	updates := map[string]interface{}{
		"status":  req.Status,
		"remarks": utils.SanitizeString(req.Remarks),
	}
	if err := database.DB.Model(&acceptance).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record response"})
	}
	acceptance.Status = req.Status

	var thesis *models.Thesis
	if req.Status == models.StatusApproved {
		thesis, err = ac.promoteIfFullyAccepted(acceptance)
		if err != nil {
			logrus.WithError(err).Error("Failed to promote accepted proposal to thesis")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create thesis"})
		}
	}

	ac.notifyStudents(acceptance, req.Status, thesis)

	middleware.LogActivity(c, "UPDATE", "adviser-acceptances", acceptance.ID, fiber.Map{
		"status": req.Status,
	})

	resp := fiber.Map{
		"message":    "Response recorded",
		"acceptance": acceptance,
	}
	if thesis != nil {
		resp["thesis"] = thesis
	}
	return c.JSON(resp)
}

// promoteIfFullyAccepted creates the thesis once every signer row for the
// proposal is approved. Returns nil when signers are still pending.
func (ac *AdviserController) promoteIfFullyAccepted(acceptance models.AdviserAcceptance) (*models.Thesis, error) {
	var outstanding int64
	err := database.DB.Model(&models.AdviserAcceptance{}).
		Where("student1_id = ? AND propose_title = ? AND status != ?",
			acceptance.Student1ID, acceptance.ProposeTitle, models.StatusApproved).
		Count(&outstanding).Error
	if err != nil {
		return nil, err
	}
	if outstanding > 0 {
		return nil, nil
	}

	// Thesis fields come from the primary adviser row
	var primary models.AdviserAcceptance
	err = database.DB.
		Where("student1_id = ? AND propose_title = ? AND role = ?",
			acceptance.Student1ID, acceptance.ProposeTitle, "adviser").
		First(&primary).Error
	if err != nil {
		return nil, err
	}

	var thesis models.Thesis
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		thesis = models.Thesis{
			Title:       primary.ProposeTitle,
			AdviserID:   primary.AdviserID,
			CoAdviserID: primary.CoAdviserID,
			Status:      models.StatusPending,
			Type:        "proposal",
			Document:    primary.ThesisFile,
		}
		if err := tx.Create(&thesis).Error; err != nil {
			return err
		}

		members := []models.ThesisMember{{ThesisID: thesis.ID, StudentID: primary.Student1ID}}
		if primary.Student2ID != nil {
			members = append(members, models.ThesisMember{ThesisID: thesis.ID, StudentID: *primary.Student2ID})
		}
		if primary.Student3ID != nil {
			members = append(members, models.ThesisMember{ThesisID: thesis.ID, StudentID: *primary.Student3ID})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, err
	}
	return &thesis, nil
}

// notifyStudents tells the proposal's students about the adviser's verdict
func (ac *AdviserController) notifyStudents(acceptance models.AdviserAcceptance, status string, thesis *models.Thesis) {
	studentIDs := []uint{acceptance.Student1ID}
	if acceptance.Student2ID != nil {
		studentIDs = append(studentIDs, *acceptance.Student2ID)
	}
	if acceptance.Student3ID != nil {
		studentIDs = append(studentIDs, *acceptance.Student3ID)
	}

	title := "Adviser responded"
	message := "Your proposal \"" + acceptance.ProposeTitle + "\" was " + status + " by the adviser"
	typ := "info"
	if status == models.StatusRejected {
		typ = "warning"
	}

	notifService := notifications.NewService()
	item := notifications.Queued(title, message, typ)
	if thesis != nil {
		item = notifications.QueuedForThesis(title, message, "success", thesis.ID, acceptance.Remarks)
	}
	if err := notifService.EnqueueOrCreate(studentIDs, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify students of adviser response")
	}
}

// ChangeAdviser points a proposal at a different adviser. The request goes
// back to pending so the new adviser gets a clean sign-off.
func (ac *AdviserController) ChangeAdviser(c *fiber.Ctx) error {
	student, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid acceptance ID"})
	}

	var req struct {
		AdviserID uint `json:"adviser_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil || req.AdviserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "New adviser is required"})
	}

	var acceptance models.AdviserAcceptance
	if err := database.DB.First(&acceptance, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Acceptance request not found"})
	}
	if acceptance.Student1ID != student.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the submitting student can change the adviser"})
	}
	if acceptance.Status == models.StatusApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Approved proposals cannot change adviser"})
	}
	if acceptance.CoAdviserID != nil && *acceptance.CoAdviserID == req.AdviserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "New adviser must differ from co-adviser"})
	}

	var adviser models.User
	if err := database.DB.Where("id = ? AND user_type = ? AND approved = ?", req.AdviserID, "faculty", true).First(&adviser).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Adviser must be an approved faculty member"})
	}

	err = database.DB.Model(&acceptance).Updates(map[string]interface{}{
		"adviser_id": req.AdviserID,
		"status":     models.StatusPending,
		"remarks":    "",
	}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change adviser"})
	}

	notifService := notifications.NewService()
	item := notifications.Queued(
		"New adviser request",
		"You have been requested to advise the proposal \""+acceptance.ProposeTitle+"\"",
		"info",
	)
	if err := notifService.EnqueueOrCreate([]uint{req.AdviserID}, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify replacement adviser")
	}

	middleware.LogActivity(c, "UPDATE", "adviser-acceptances", acceptance.ID, fiber.Map{
		"action":     "change_adviser",
		"adviser_id": req.AdviserID,
	})

	return c.JSON(fiber.Map{"message": "Adviser changed, proposal reset to pending"})
}

// UploadProposalFile uploads the proposal document to S3 and returns its URL
func (ac *AdviserController) UploadProposalFile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
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
		logrus.WithError(err).Error("Failed to upload proposal document")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Document uploaded",
		"url":     url,
	})
}
