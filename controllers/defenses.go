package controllers

import (
	"errors"
	"fmt"
	"time"

	"thesistrack_go/database"
	"thesistrack_go/middleware"
	"thesistrack_go/models"
	"thesistrack_go/services/notifications"
	"thesistrack_go/services/scheduling"
	"thesistrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// DefenseController schedules defense and proposal hearings. Slot search is
// advisory; the booking write re-checks conflicts inside a transaction, so a
// slot shown as free can still be rejected if another writer takes it first.
type DefenseController struct{}

func newEngine() *scheduling.Engine {
	return scheduling.NewEngine(
		scheduling.NewGormStore(database.GetDB()),
		scheduling.SettingsFromConfig(),
	)
}

// SearchSlotsRequest is the availability search body. Times accept both
// 12-hour ("9:00 AM") and 24-hour ("09:00") forms.
type SearchSlotsRequest struct {
	ThesisID       uint   `json:"thesis_id"`
	ParticipantIDs []uint `json:"participant_ids"`
	DateRangeStart string `json:"date_range_start"`
	DateRangeEnd   string `json:"date_range_end"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	WeekdaysOnly   bool   `json:"weekdays_only"`
}

// SearchSlots returns conflict-free candidate slots for the requested
// participants over the date range.
func (dc *DefenseController) SearchSlots(c *fiber.Ctx) error {
	var req SearchSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	participants := req.ParticipantIDs
	if req.ThesisID != 0 {
		resolved, err := dc.defenseParticipants(req.ThesisID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
		}
		participants = resolved
	}

	slotReq := scheduling.SlotRequest{
		ParticipantIDs: participants,
		DateRangeStart: req.DateRangeStart,
		DateRangeEnd:   req.DateRangeEnd,
		WeekdaysOnly:   req.WeekdaysOnly,
	}

	if req.StartTime != "" {
		start, err := scheduling.ParseTo24Hour(req.StartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start time format"})
		}
		slotReq.StartTime = start
	}
	if req.EndTime != "" {
		end, err := scheduling.ParseTo24Hour(req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end time format"})
		}
		slotReq.EndTime = end
	}

	slots, err := newEngine().FindAvailableSlots(c.Context(), slotReq)
	if err != nil {
		var verr *scheduling.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  verr.Message,
				"reason": verr.Reason,
			})
		}
		if errors.Is(err, scheduling.ErrFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.WithError(err).Error("Slot search failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Slot search failed"})
	}

	return c.JSON(fiber.Map{
		"slots": utils.ToSlotDTOs(slots),
		"count": len(slots),
	})
}

// ScheduleDefenseRequest books a hearing at a fixed time for every
// participant of a thesis.
type ScheduleDefenseRequest struct {
	ThesisID  uint   `json:"thesis_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	EventType string `json:"event_type"`
	Label     string `json:"label"`
}

// ScheduleDefense books the hearing. The write path re-validates conflicts
// per participant inside one transaction; on a race the whole batch rolls
// back and the caller gets a conflict response.
func (dc *DefenseController) ScheduleDefense(c *fiber.Ctx) error {
	var req ScheduleDefenseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ThesisID == 0 || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Thesis, date, start and end times are required"})
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = "defense"
	}
	if eventType != "defense" && eventType != "proposal" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Event type must be defense or proposal"})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, req.ThesisID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	start, err := scheduling.ParseTo24Hour(req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start time format"})
	}
	end, err := scheduling.ParseTo24Hour(req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end time format"})
	}
	if start >= end {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Start time must be before end time"})
	}

	participants, err := dc.defenseParticipants(thesis.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve participants"})
	}

	// Advisory availability check surfaces working-hour violations with
	// their reason codes before anything is written.
	engine := newEngine()
	slots, err := engine.FindAvailableSlots(c.Context(), scheduling.SlotRequest{
		ParticipantIDs: participants,
		DateRangeStart: req.Date,
		DateRangeEnd:   req.Date,
		StartTime:      start,
		EndTime:        end,
	})
	if err != nil {
		var verr *scheduling.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  verr.Message,
				"reason": verr.Reason,
			})
		}
		if errors.Is(err, scheduling.ErrFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.WithError(err).Error("Availability check failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Availability check failed"})
	}
	if len(slots) == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Requested time conflicts with an existing booking",
		})
	}

	label := req.Label
	if label == "" {
		label = fmt.Sprintf("%s: %s", eventType, thesis.Title)
	}

	settings := scheduling.SettingsFromConfig()
	bookingIDs := dc.withCoordinator(participants, settings.CoordinatorID)

	bookings := make([]models.Booking, 0, len(bookingIDs))
	thesisID := thesis.ID
	for _, userID := range bookingIDs {
		bookings = append(bookings, models.Booking{
			UserID:    userID,
			Date:      req.Date,
			StartTime: start,
			EndTime:   end,
			Label:     label,
			EventType: eventType,
			ThesisID:  &thesisID,
		})
	}

	store := scheduling.NewGormStore(database.GetDB())
	if err := store.InsertBatch(c.Context(), bookings); err != nil {
		var cerr *scheduling.ConflictError
		if errors.As(err, &cerr) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Slot was taken while booking; search again",
				"conflict": fiber.Map{
					"user_id":    cerr.UserID,
					"date":       cerr.Date,
					"start_time": cerr.StartTime,
					"end_time":   cerr.EndTime,
				},
			})
		}
		logrus.WithError(err).Error("Failed to book defense")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to book defense"})
	}

	dc.notifyBooking(thesis, bookingIDs, req.Date, start, end, "scheduled")

	middleware.LogActivity(c, "CREATE", "defenses", thesis.ID, fiber.Map{
		"date":       req.Date,
		"start_time": start,
		"end_time":   end,
		"event_type": eventType,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Defense scheduled",
		"bookings": utils.ToBookingDTOs(bookings),
	})
}

// RescheduleDefense replaces a thesis' bookings with a new time. The old
// bookings are removed and the new ones inserted atomically per batch.
func (dc *DefenseController) RescheduleDefense(c *fiber.Ctx) error {
	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	store := scheduling.NewGormStore(database.GetDB())
	removed, err := store.DeleteByThesis(c.Context(), uint(thesisID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to clear previous bookings"})
	}
	if removed == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No existing bookings for this thesis"})
	}

	// Delegate the insert to the normal scheduling path
	return dc.ScheduleDefense(c)
}

// CancelDefense removes every booking tied to a thesis
func (dc *DefenseController) CancelDefense(c *fiber.Ctx) error {
	thesisID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid thesis ID"})
	}

	var thesis models.Thesis
	if err := database.DB.First(&thesis, thesisID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Thesis not found"})
	}

	var affected []models.Booking
	database.DB.Where("thesis_id = ?", thesis.ID).Find(&affected)

	store := scheduling.NewGormStore(database.GetDB())
	removed, err := store.DeleteByThesis(c.Context(), thesis.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel bookings"})
	}
	if removed == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No bookings for this thesis"})
	}

	if len(affected) > 0 {
		userIDs := make([]uint, 0, len(affected))
		for _, b := range affected {
			userIDs = append(userIDs, b.UserID)
		}
		dc.notifyBooking(thesis, userIDs, affected[0].Date, affected[0].StartTime, affected[0].EndTime, "cancelled")
	}

	middleware.LogActivity(c, "DELETE", "defenses", thesis.ID, fiber.Map{"removed": removed})

	return c.JSON(fiber.Map{
		"message": "Defense cancelled",
		"removed": removed,
	})
}

// GetBookings lists bookings, filterable by user and date range
func (dc *DefenseController) GetBookings(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Booking{}).Preload("User")

	if userID := c.QueryInt("user_id"); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if thesisID := c.QueryInt("thesis_id"); thesisID > 0 {
		query = query.Where("thesis_id = ?", thesisID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var bookings []models.Booking
	if err := query.Order("date ASC, start_time ASC").Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}

	return c.JSON(fiber.Map{"bookings": utils.ToBookingDTOs(bookings)})
}

// GetMySchedule lists the current user's bookings
func (dc *DefenseController) GetMySchedule(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	query := database.DB.Where("user_id = ?", user.ID)
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var bookings []models.Booking
	if err := query.Order("date ASC, start_time ASC").Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch schedule"})
	}

	return c.JSON(fiber.Map{"bookings": utils.ToBookingDTOs(bookings)})
}

// ExportCalendar streams the defense calendar as an Excel workbook
func (dc *DefenseController) ExportCalendar(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Booking{}).Preload("User")
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var bookings []models.Booking
	if err := query.Order("date ASC, start_time ASC").Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bookings"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Defense Calendar"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Start", "End", "Event", "Label", "Participant", "Email"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, b := range bookings {
		startDisplay := b.StartTime
		if v, err := scheduling.FormatTo12Hour(b.StartTime); err == nil {
			startDisplay = v
		}
		endDisplay := b.EndTime
		if v, err := scheduling.FormatTo12Hour(b.EndTime); err == nil {
			endDisplay = v
		}

		values := []interface{}{
			b.Date,
			startDisplay,
			endDisplay,
			b.EventType,
			b.Label,
			utils.FullName(b.User.FirstName, b.User.MiddleName, b.User.LastName, b.User.Suffix),
			b.User.Email,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logrus.WithError(err).Error("Failed to build calendar export")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Export failed"})
	}

	filename := fmt.Sprintf("defense_calendar_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(buf.Bytes())
}

// defenseParticipants resolves everyone a hearing must include: members,
// advisers and accepted panelists. The coordinator is appended by the engine
// during search and by withCoordinator at write time.
func (dc *DefenseController) defenseParticipants(thesisID uint) ([]uint, error) {
	var thesis models.Thesis
	if err := database.DB.First(&thesis, thesisID).Error; err != nil {
		return nil, err
	}

	ids := []uint{thesis.AdviserID}
	if thesis.CoAdviserID != nil {
		ids = append(ids, *thesis.CoAdviserID)
	}

	var members []models.ThesisMember
	if err := database.DB.Where("thesis_id = ?", thesis.ID).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		ids = append(ids, m.StudentID)
	}

	var reviews []models.PanelReview
	if err := database.DB.Where("thesis_id = ?", thesis.ID).Find(&reviews).Error; err != nil {
		return nil, err
	}
	for _, r := range reviews {
		ids = append(ids, r.PanelID)
	}

	return ids, nil
}

// withCoordinator appends the coordinator to the participant set, deduplicated
func (dc *DefenseController) withCoordinator(ids []uint, coordinatorID uint) []uint {
	seen := make(map[uint]struct{}, len(ids)+1)
	out := make([]uint, 0, len(ids)+1)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if coordinatorID != 0 {
		if _, ok := seen[coordinatorID]; !ok {
			out = append(out, coordinatorID)
		}
	}
	return out
}

// notifyBooking tells every participant about a scheduling change
func (dc *DefenseController) notifyBooking(thesis models.Thesis, userIDs []uint, date, start, end, action string) {
	timeRange := scheduling.JoinRange(start, end)
	if s, err := scheduling.FormatTo12Hour(start); err == nil {
		if e, err := scheduling.FormatTo12Hour(end); err == nil {
			timeRange = scheduling.JoinRange(s, e)
		}
	}

	typ := "success"
	if action == "cancelled" {
		typ = "warning"
	}

	notifService := notifications.NewService()
	item := notifications.QueuedForThesis(
		"Defense "+action,
		fmt.Sprintf("The hearing for \"%s\" was %s: %s %s", thesis.Title, action, date, timeRange),
		typ, thesis.ID, "")
	if err := notifService.EnqueueOrCreate(userIDs, item); err != nil {
		logrus.WithError(err).Warn("Failed to notify participants of booking change")
	}
}
