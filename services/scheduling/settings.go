package scheduling

import (
	"strings"
	"thesistrack_go/config"
	"time"
)

// ParseWindows parses a comma-separated "HH:MM-HH:MM,..." window list.
// Malformed entries are skipped.
func ParseWindows(spec string) []Window {
	var windows []Window
	for _, part := range strings.Split(spec, ",") {
		start, end, found := strings.Cut(strings.TrimSpace(part), "-")
		if !found {
			continue
		}
		start = strings.TrimSpace(start)
		end = strings.TrimSpace(end)
		if len(start) != 5 || len(end) != 5 || start >= end {
			continue
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}

// SettingsFromConfig builds engine settings from the loaded application
// configuration.
func SettingsFromConfig() Settings {
	cfg := config.AppConfig
	return Settings{
		CoordinatorID: cfg.CoordinatorUserID,
		DayStart:      cfg.DefenseDayStart,
		DayEnd:        cfg.DefenseDayEnd,
		Windows:       ParseWindows(cfg.DefenseWindows),
		SlotDuration:  time.Duration(cfg.DefenseSlotMinutes) * time.Minute,
		Step:          time.Duration(cfg.DefenseStepMinutes) * time.Minute,
		MinimumGap:    time.Duration(cfg.DefenseMinGapMinutes) * time.Minute,
	}
}
