package utils

import (
	"time"

	"thesistrack_go/models"
	"thesistrack_go/services/scheduling"
)

// Compact representations used across APIs
type UserShort struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
	UserType  string `json:"user_type,omitempty"`
	Email     string `json:"email,omitempty"`
}

func ToUserShort(u models.User) UserShort {
	return UserShort{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UserType:  u.UserType,
		Email:     u.Email,
	}
}

type NotificationDTO struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    uint       `json:"user_id"`
	ThesisID  *uint      `json:"thesis_id,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Remarks   string     `json:"remarks,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	User      UserShort  `json:"user"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// The caller is expected to have preloaded User.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		UserID:    n.UserID,
		ThesisID:  n.ThesisID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Remarks:   n.Remarks,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		User:      ToUserShort(n.User),
	}
}

// SlotDTO is the wire form of a candidate slot. Times are converted to the
// 12-hour display format expected by clients.
type SlotDTO struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	TimeRange string `json:"time_range"`
}

func ToSlotDTO(slot scheduling.CandidateSlot) SlotDTO {
	start, err := scheduling.FormatTo12Hour(slot.StartTime)
	if err != nil {
		start = slot.StartTime
	}
	end, err := scheduling.FormatTo12Hour(slot.EndTime)
	if err != nil {
		end = slot.EndTime
	}
	return SlotDTO{
		Date:      slot.Date,
		StartTime: start,
		EndTime:   end,
		TimeRange: scheduling.JoinRange(start, end),
	}
}

func ToSlotDTOs(slots []scheduling.CandidateSlot) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, ToSlotDTO(s))
	}
	return out
}

// BookingDTO mirrors a stored booking with display-format times attached.
type BookingDTO struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `json:"user_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	TimeRange string    `json:"time_range"`
	Label     string    `json:"label,omitempty"`
	EventType string    `json:"event_type"`
	ThesisID  *uint     `json:"thesis_id,omitempty"`
	User      UserShort `json:"user"`
}

func ToBookingDTO(b models.Booking) BookingDTO {
	start, err := scheduling.FormatTo12Hour(b.StartTime)
	if err != nil {
		start = b.StartTime
	}
	end, err := scheduling.FormatTo12Hour(b.EndTime)
	if err != nil {
		end = b.EndTime
	}
	return BookingDTO{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UserID:    b.UserID,
		Date:      b.Date,
		StartTime: start,
		EndTime:   end,
		TimeRange: scheduling.JoinRange(start, end),
		Label:     b.Label,
		EventType: b.EventType,
		ThesisID:  b.ThesisID,
		User:      ToUserShort(b.User),
	}
}

func ToBookingDTOs(bookings []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ToBookingDTO(b))
	}
	return out
}
