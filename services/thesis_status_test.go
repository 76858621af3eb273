package services

import (
	"testing"

	"thesistrack_go/models"
)

func TestDeriveThesisStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected string
	}{
		{
			name:     "no reviews yet",
			statuses: nil,
			expected: models.StatusPending,
		},
		{
			name:     "all approved",
			statuses: []string{models.StatusApproved, models.StatusApproved, models.StatusApproved},
			expected: models.StatusApproved,
		},
		{
			name:     "one still pending",
			statuses: []string{models.StatusApproved, models.StatusPending, models.StatusApproved},
			expected: models.StatusPending,
		},
		{
			name:     "rejection wins over approvals",
			statuses: []string{models.StatusApproved, models.StatusRejected, models.StatusApproved},
			expected: models.StatusRejected,
		},
		{
			name:     "rejection wins over pending",
			statuses: []string{models.StatusPending, models.StatusRejected},
			expected: models.StatusRejected,
		},
		{
			name:     "single approval",
			statuses: []string{models.StatusApproved},
			expected: models.StatusApproved,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.PanelReview, 0, len(tc.statuses))
			for i, s := range tc.statuses {
				reviews = append(reviews, models.PanelReview{PanelID: uint(i + 1), Status: s})
			}
			if got := DeriveThesisStatus(reviews); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}
