package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"thesistrack_go/database"
	"thesistrack_go/models"
	"thesistrack_go/services/notifications"
	"thesistrack_go/services/scheduling"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefenseReminderService sends day-before reminders to everyone booked for a
// defense or proposal hearing.
type DefenseReminderService struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewDefenseReminderService() *DefenseReminderService {
	return &DefenseReminderService{
		db:   database.GetDB(),
		cron: cron.New(),
	}
}

// Start schedules the daily reminder job. Runs every morning at 07:00 server
// time and once immediately on startup to cover missed runs after restarts.
func (drs *DefenseReminderService) Start() error {
	if _, err := drs.cron.AddFunc("0 7 * * *", drs.RemindTomorrow); err != nil {
		return fmt.Errorf("failed to schedule defense reminders: %v", err)
	}
	drs.cron.Start()
	go drs.RemindTomorrow()
	logrus.Info("Defense reminder scheduler started")
	return nil
}

// Stop halts the cron runner and waits for in-flight jobs.
func (drs *DefenseReminderService) Stop() {
	ctx := drs.cron.Stop()
	<-ctx.Done()
}

// RemindTomorrow notifies every participant booked on tomorrow's date.
func (drs *DefenseReminderService) RemindTomorrow() {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	var bookings []models.Booking
	err := drs.db.
		Where("date = ? AND event_type IN ?", tomorrow, []string{"defense", "proposal"}).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch tomorrow's defense bookings")
		return
	}
	if len(bookings) == 0 {
		return
	}

	notifService := notifications.NewService()
	sent := 0
	for _, b := range bookings {
		if drs.hasReminderBeenSent(b.UserID, b.Date, b.StartTime) {
			continue
		}

		timeRange := scheduling.JoinRange(b.StartTime, b.EndTime)
		if start, err := scheduling.FormatTo12Hour(b.StartTime); err == nil {
			if end, err := scheduling.FormatTo12Hour(b.EndTime); err == nil {
				timeRange = scheduling.JoinRange(start, end)
			}
		}

		message := fmt.Sprintf("Reminder: %s is scheduled tomorrow (%s) at %s", b.Label, b.Date, timeRange)
		item := notifications.Queued("Defense reminder", message, "info")
		if b.ThesisID != nil {
			item = notifications.QueuedForThesis("Defense reminder", message, "info", *b.ThesisID, "")
		}
		if err := notifService.EnqueueOrCreate([]uint{b.UserID}, item); err != nil {
			logrus.WithError(err).WithField("user_id", b.UserID).Error("Failed to send defense reminder")
			continue
		}
		sent++
	}

	logrus.WithFields(logrus.Fields{
		"date":      tomorrow,
		"bookings":  len(bookings),
		"reminders": sent,
	}).Info("Defense reminders processed")
}

// hasReminderBeenSent guards against duplicate reminders when the job runs
// more than once a day.
func (drs *DefenseReminderService) hasReminderBeenSent(userID uint, date, startTime string) bool {
	var count int64
	err := drs.db.Model(&models.Notification{}).
		Where("user_id = ? AND title = ? AND message LIKE ? AND created_at > ?",
			userID,
			"Defense reminder",
			fmt.Sprintf("%%(%s)%%", date),
			time.Now().Add(-24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}
