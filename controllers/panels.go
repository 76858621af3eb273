package controllers

import (
	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/services"
	"thesistrack_go/services/notifications"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PanelController handles panel seats and panel verdicts. Assignment is a
// two-step workflow: the coordinator invites faculty to a panel, each invitee
// accepts or declines the seat, and accepted panelists later review the
// thesis document.
type PanelController struct{}

const (
	minPanelSize = 3
	maxPanelSize = 5
)

// AssignPanelists invites faculty members to a thesis panel (coordinator/admin)
func (pc *PanelController) AssignPanelists(c *fiber.Ctx) error {
	var req struct {
		ThesisID uint   `json:"thesis_id" validate:"required"`
		PanelIDs []uint `json:"panel_ids" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.PanelIDs) < minPanelSize || len(req.PanelIDs) > maxPanelSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Panel must have between 3 and 5 members",
		})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, req.ThesisID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	// Advisers cannot sit on their own panel; every seat must be distinct
	// approved faculty.
	seen := make(map[uint]struct{}, len(req.PanelIDs))
	for _, panelID := range req.PanelIDs {
		if _, dup := seen[panelID]; dup {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Duplicate panelist"})
		}
		seen[panelID] = struct{}{}

		if panelID == thesis.AdviserID || (thesis.CoAdviserID != nil && panelID == *thesis.CoAdviserID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Advisers cannot sit on the panel of their own thesis",
			})
		}
		var panelist models.User
		if err := database.DB.Where("id = ? AND user_type = ? AND approved = ?", panelID, "faculty", true).First(&panelist).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Every panelist must be an approved faculty member",
			})
		}
	}

	// The proposal row anchors the invitation
	var proposal models.AdviserAcceptance
	err := database.DB.
		Where("propose_title = ? AND adviser_id = ? AND role = ?", thesis.Title, thesis.AdviserID, "adviser").
		First(&proposal).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Originating proposal not found"})
	}

	invitations := make([]models.PanelApproval, 0, len(req.PanelIDs))
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, panelID := range req.PanelIDs {
			var existing models.PanelApproval
			if err := tx.Where("proposal_id = ? AND panel_id = ?", proposal.ID, panelID).First(&existing).Error; err == nil {
				continue
			}
			invitation := models.PanelApproval{
				ProposalID:   proposal.ID,
				PanelID:      panelID,
				ProposeTitle: thesis.Title,
				ThesisFile:   thesis.Document,
				Status:       models.StatusPending,
			}
			if err := tx.Create(&invitation).Error; err != nil {
				return err
			}
			invitations = append(invitations, invitation)
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign panelists"})
	}

	notifService := notifications.NewService()
	for _, inv := range invitations {
		item := notifications.QueuedForThesis(
			"Panel invitation",
			"You have been invited to the panel for \""+thesis.Title+"\"",
			"info", thesis.ID, "")
		if err := notifService.EnqueueOrCreate([]uint{inv.PanelID}, item); err != nil {
			logrus.WithError(err).Warn("Failed to notify panelist of invitation")
		}
	}

	middleware.LogActivity(c, "CREATE", "panel-approvals", thesis.ID, fiber.Map{
		"thesis_id": thesis.ID,
		"panel_ids": req.PanelIDs,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Panelists invited",
		"invitations": invitations,
	})
}

// GetMyInvitations returns panel seat invitations for the current faculty member
func (pc *PanelController) GetMyInvitations(c *fiber.Ctx) error {
	panelist, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Where("panel_id = ?", panelist.ID)
	if status := c.Query("status"); status != "" {
		if !utils.IsValidWorkflowStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}

	var invitations []models.PanelApproval
	err = query.
		Preload("Proposal").
		Preload("Proposal.Student1").
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch invitations"})
	}

	return c.JSON(fiber.Map{"invitations": invitations})
}

// RespondToInvitation accepts or declines a panel seat. Accepting opens a
// pending review slot on the thesis.
func (pc *PanelController) RespondToInvitation(c *fiber.Ctx) error {
	panelist, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invitation ID"})
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

	var invitation models.PanelApproval
	if err := database.DB.First(&invitation, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invitation not found"})
	}
	if invitation.PanelID != panelist.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invitation is addressed to another panelist"})
	}
	if invitation.Status != models.StatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Invitation has already been answered"})
	}

	thesis, err := pc.thesisForInvitation(invitation)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found for invitation"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":  req.Status,
			"remarks": utils.SanitizeString(req.Remarks),
		}
		if err := tx.Model(&invitation).Updates(updates).Error; err != nil {
			return err
		}
		if req.Status == models.StatusApproved {
			review := models.PanelReview{
				ThesisID: thesis.ID,
				PanelID:  panelist.ID,
				Status:   models.StatusPending,
			}
			return tx.Create(&review).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record response"})
	}
	invitation.Status = req.Status

	middleware.LogActivity(c, "UPDATE", "panel-approvals", invitation.ID, fiber.Map{
		"status": req.Status,
	})

	return c.JSON(fiber.Map{
		"message":    "Response recorded",
		"invitation": invitation,
	})
}

// ReplacePanelist hands a panel seat to a different faculty member
// (coordinator/admin). The seat goes back to pending and any review the
// outgoing panelist held is withdrawn.
func (pc *PanelController) ReplacePanelist(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invitation ID"})
	}

	var req struct {
		PanelID uint `json:"panel_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil || req.PanelID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Replacement panelist is required"})
	}

	var invitation models.PanelApproval
	if err := database.DB.First(&invitation, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invitation not found"})
	}
	if invitation.PanelID == req.PanelID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Replacement must differ from the current panelist"})
	}

	thesis, err := pc.thesisForInvitation(invitation)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found for invitation"})
	}
	if req.PanelID == thesis.AdviserID || (thesis.CoAdviserID != nil && req.PanelID == *thesis.CoAdviserID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Advisers cannot sit on the panel of their own thesis",
		})
	}

	var replacement models.User
	if err := database.DB.Where("id = ? AND user_type = ? AND approved = ?", req.PanelID, "faculty", true).First(&replacement).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Replacement must be an approved faculty member"})
	}

	var taken int64
	database.DB.Model(&models.PanelApproval{}).
		Where("proposal_id = ? AND panel_id = ?", invitation.ProposalID, req.PanelID).
		Count(&taken)
	if taken > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Replacement already holds a seat on this panel"})
	}

	outgoingID := invitation.PanelID
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"panel_id": req.PanelID,
			"status":   models.StatusPending,
			"remarks":  "",
		}
		if err := tx.Model(&invitation).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("thesis_id = ? AND panel_id = ?", thesis.ID, outgoingID).
			Delete(&models.PanelReview{}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to replace panelist"})
	}

	// Withdrawing a review can change the derived status
	if _, err := services.RecomputeThesisStatus(thesis.ID); err != nil {
		logrus.WithError(err).Warn("Failed to recompute thesis status after panel swap")
	}

	notifService := notifications.NewService()
	item := notifications.QueuedForThesis(
		"Panel invitation",
		"You have been invited to the panel for \""+thesis.Title+"\"",
		"info", thesis.ID, "")
	if err := notifService.EnqueueOrCreate([]uint{req.PanelID}, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify replacement panelist")
	}

	middleware.LogActivity(c, "UPDATE", "panel-approvals", invitation.ID, fiber.Map{
		"action":   "replace_panelist",
		"panel_id": req.PanelID,
	})

	return c.JSON(fiber.Map{"message": "Panelist replaced, seat reset to pending"})
}

// SubmitReview records the panelist's verdict on the thesis document and
// recomputes the thesis status.
func (pc *PanelController) SubmitReview(c *fiber.Ctx) error {
	panelist, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
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

	var review models.PanelReview
	if err := database.DB.Where("thesis_id = ? AND panel_id = ?", thesisID, panelist.ID).First(&review).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not on this thesis panel"})
	}

	updates := map[string]interface{}{
		"status":  req.Status,
		"remarks": utils.SanitizeString(req.Remarks),
	}
	if err := database.DB.Model(&review).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record review"})
	}
	review.Status = req.Status

	derived, err := services.RecomputeThesisStatus(uint(thesisID))
	if err != nil {
		logrus.WithError(err).Error("Failed to recompute thesis status")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update thesis status"})
	}

	pc.notifyThesisMembers(uint(thesisID), review, derived)

	middleware.LogActivity(c, "UPDATE", "panel-reviews", review.ID, fiber.Map{
		"status":        req.Status,
		"thesis_status": derived,
	})

	return c.JSON(fiber.Map{
		"message":       "Review recorded",
		"review":        review,
		"thesis_status": derived,
	})
}

// GetThesisPanel lists the panel reviews for a thesis
func (pc *PanelController) GetThesisPanel(c *fiber.Ctx) error {
	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var reviews []models.PanelReview
	err = database.DB.
		Where("thesis_id = ?", thesisID).
		Preload("Panel").
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch panel"})
	}

	return c.JSON(fiber.Map{"reviews": reviews})
}

// thesisForInvitation resolves the thesis the invitation's proposal produced
func (pc *PanelController) thesisForInvitation(invitation models.PanelApproval) (*models.Thesis, error) {
	var proposal models.AdviserAcceptance
	if err := database.DB.First(&proposal, invitation.ProposalID).Error; err != nil {
		return nil, err
	}
	var thesis models.Thesis
	if err := database.DB.Where("title = ? AND adviser_id = ?", proposal.ProposeTitle, proposal.AdviserID).First(&thesis).Error; err != nil {
		return nil, err
	}
	return &thesis, nil
}

// notifyThesisMembers tells the thesis students about a new panel verdict
func (pc *PanelController) notifyThesisMembers(thesisID uint, review models.PanelReview, derivedStatus string) {
	var members []models.ThesisMember
	if err := database.DB.Where("thesis_id = ?", thesisID).Find(&members).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load thesis members for notification")
		return
	}
	if len(members) == 0 {
		return
	}
	studentIDs := make([]uint, 0, len(members))
	for _, m := range members {
		studentIDs = append(studentIDs, m.StudentID)
	}

	typ := "info"
	if derivedStatus == models.StatusApproved {
		typ = "success"
	} else if review.Status == models.StatusRejected {
		typ = "warning"
	}

	notifService := notifications.NewService()
	item := notifications.QueuedForThesis(
		"Panel review submitted",
		"A panelist has "+review.Status+" your thesis",
		typ, thesisID, review.Remarks)
	if err := notifService.EnqueueOrCreate(studentIDs, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify students of panel review")
	}
}
