package services

import (
	"thesistrack_go/database"
	"thesistrack_go/models"

	"github.com/sirupsen/logrus"
)

// DeriveThesisStatus computes a thesis status from its panel review verdicts.
// Any rejection rejects the thesis. Approval requires every review approved
// and at least one review present. Everything else is pending.
func DeriveThesisStatus(reviews []models.PanelReview) string {
	if len(reviews) == 0 {
		return models.StatusPending
	}
	approved := 0
	for _, r := range reviews {
		switch r.Status {
		case models.StatusRejected:
			return models.StatusRejected
		case models.StatusApproved:
			approved++
		}
	}
	if approved == len(reviews) {
		return models.StatusApproved
	}
	return models.StatusPending
}

// RecomputeThesisStatus loads a thesis' panel reviews, derives the aggregate
// status and persists it when it changed. Returns the derived status.
func RecomputeThesisStatus(thesisID uint) (string, error) {
	var reviews []models.PanelReview
	if err := database.DB.Where("thesis_id = ?", thesisID).Find(&reviews).Error; err != nil {
		return "", err
	}

	status := DeriveThesisStatus(reviews)

	result := database.DB.Model(&models.Thesis{}).
		Where("id = ? AND status != ?", thesisID, status).
		Update("status", status)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"thesis_id": thesisID,
			"status":    status,
		}).Info("Thesis status updated from panel reviews")
	}
	return status, nil
}
