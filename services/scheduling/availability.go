package scheduling

import (
	"context"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Validation reason codes surfaced to API callers before any store access.
const (
	ReasonOutsideWorkingHoursStart = "OUTSIDE_WORKING_HOURS_START"
	ReasonOutsideWorkingHoursEnd   = "OUTSIDE_WORKING_HOURS_END"
	ReasonMissingRequiredField     = "MISSING_REQUIRED_FIELD"
)

// ValidationError rejects a request that violates working-hour bounds or is
// missing required fields. Distinct from an empty result.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Window is a configured sub-range of the day during which slots may be
// offered, e.g. 08:00-11:00. Both bounds are "HH:MM" strings.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotRequest describes one availability search. StartTime/EndTime switch the
// engine into fixed-time mode; otherwise slots are enumerated from the
// working windows.
type SlotRequest struct {
	ParticipantIDs []uint
	DateRangeStart string // YYYY-MM-DD, inclusive
	DateRangeEnd   string // YYYY-MM-DD, inclusive
	StartTime      string // HH:MM, fixed-time mode only
	EndTime        string // HH:MM, fixed-time mode only
	SlotDuration   time.Duration
	WorkingWindows []Window
	WeekdaysOnly   bool
	MinimumGap     time.Duration
}

// CandidateSlot is a computed, not-yet-persisted free time window. Times are
// 24-hour "HH:MM"; serializers convert to the 12-hour wire form.
type CandidateSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Settings carries the fixed scheduling constants injected from configuration.
// The coordinator is implicitly added to every request so a shared resource
// can never be double-booked across event types.
type Settings struct {
	CoordinatorID uint
	DayStart      string // earliest permitted start in fixed-time mode
	DayEnd        string // latest permitted end in fixed-time mode
	Windows       []Window
	SlotDuration  time.Duration
	Step          time.Duration
	MinimumGap    time.Duration
}

// Engine produces conflict-free candidate slots for scheduling requests.
// Results are advisory: the store re-validates on write, which is the
// authoritative conflict check.
type Engine struct {
	store    Store
	settings Settings
}

func NewEngine(store Store, settings Settings) *Engine {
	return &Engine{store: store, settings: settings}
}

// Overlaps reports whether two half-open time ranges share any instant.
// Adjacent ranges (one ends exactly when the other starts) do not overlap.
// Valid only for zero-padded "HH:MM" strings, which compare lexicographically.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// conflicts is the single overlap predicate used everywhere conflicts are
// tested, parameterized by the minimum-gap rule: a candidate whose start lands
// within gap of an existing booking's start conflicts even without overlap.
func conflicts(candStart, candEnd string, booking bookingRange, gap time.Duration) bool {
	if Overlaps(candStart, candEnd, booking.start, booking.end) {
		return true
	}
	if gap <= 0 {
		return false
	}
	diff := minutesOf(candStart) - minutesOf(booking.start)
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute < gap
}

type bookingRange struct {
	start string
	end   string
}

// FindAvailableSlots resolves participants, fetches their bookings in one
// batched query and returns every conflict-free candidate slot in ascending
// date order, then window declaration order, then start time. A fresh call
// must be made after bookings mutate.
func (e *Engine) FindAvailableSlots(ctx context.Context, req SlotRequest) ([]CandidateSlot, error) {
	if len(req.ParticipantIDs) == 0 {
		return nil, &ValidationError{Reason: ReasonMissingRequiredField, Message: "participant set is empty"}
	}
	if req.DateRangeStart == "" || req.DateRangeEnd == "" {
		return nil, &ValidationError{Reason: ReasonMissingRequiredField, Message: "date range is required"}
	}

	fixed := req.StartTime != "" || req.EndTime != ""
	if fixed {
		if req.StartTime == "" || req.EndTime == "" {
			return nil, &ValidationError{Reason: ReasonMissingRequiredField, Message: "fixed-time mode requires both start and end"}
		}
		// Working-day bounds are validated before any store access.
		if req.StartTime < e.settings.DayStart {
			return nil, &ValidationError{
				Reason:  ReasonOutsideWorkingHoursStart,
				Message: fmt.Sprintf("requested start %s is before %s", req.StartTime, e.settings.DayStart),
			}
		}
		if req.EndTime > e.settings.DayEnd {
			return nil, &ValidationError{
				Reason:  ReasonOutsideWorkingHoursEnd,
				Message: fmt.Sprintf("requested end %s is after %s", req.EndTime, e.settings.DayEnd),
			}
		}
	}

	dates, err := e.enumerateDates(req)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return []CandidateSlot{}, nil
	}

	participants := e.resolveParticipants(req.ParticipantIDs)
	bookings, err := e.store.FindByParticipants(ctx, participants)
	if err != nil {
		return nil, err
	}

	booked := make(map[string][]bookingRange, len(bookings))
	for _, b := range bookings {
		booked[b.Date] = append(booked[b.Date], bookingRange{start: b.StartTime, end: b.EndTime})
	}

	gap := req.MinimumGap
	if gap == 0 {
		gap = e.settings.MinimumGap
	}

	var free []CandidateSlot
	for _, date := range dates {
		for _, slot := range e.slotsForDay(req) {
			if dayIsFree(booked[date], slot, gap) {
				free = append(free, CandidateSlot{Date: date, StartTime: slot.start, EndTime: slot.end})
			}
		}
	}
	if free == nil {
		free = []CandidateSlot{}
	}
	return free, nil
}

// FirstAvailableSlot returns the earliest free slot, or nil when the range is
// fully booked.
func (e *Engine) FirstAvailableSlot(ctx context.Context, req SlotRequest) (*CandidateSlot, error) {
	slots, err := e.FindAvailableSlots(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

// resolveParticipants appends the coordinator to the request's participant set,
// deduplicated.
func (e *Engine) resolveParticipants(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids)+1)
	resolved := make([]uint, 0, len(ids)+1)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		resolved = append(resolved, id)
	}
	if e.settings.CoordinatorID != 0 {
		if _, ok := seen[e.settings.CoordinatorID]; !ok {
			resolved = append(resolved, e.settings.CoordinatorID)
		}
	}
	return resolved
}

// enumerateDates walks every calendar date in the inclusive range. A start
// after the end yields an empty sequence, not an error.
func (e *Engine) enumerateDates(req SlotRequest) ([]string, error) {
	start, err := time.Parse(dateLayout, req.DateRangeStart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad range start %q", ErrFormat, req.DateRangeStart)
	}
	end, err := time.Parse(dateLayout, req.DateRangeEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: bad range end %q", ErrFormat, req.DateRangeEnd)
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if req.WeekdaysOnly && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

// slotsForDay enumerates the candidate ranges for a single day. In fixed-time
// mode that is just the requested range; otherwise slots of the configured
// duration advance through each working window by the fixed step, overlapping
// one another so a free slot can sit close to a preferred time.
func (e *Engine) slotsForDay(req SlotRequest) []bookingRange {
	if req.StartTime != "" && req.EndTime != "" {
		return []bookingRange{{start: req.StartTime, end: req.EndTime}}
	}

	windows := req.WorkingWindows
	if len(windows) == 0 {
		windows = e.settings.Windows
	}
	duration := req.SlotDuration
	if duration == 0 {
		duration = e.settings.SlotDuration
	}
	step := e.settings.Step
	if step <= 0 {
		step = 30 * time.Minute
	}

	durMin := int(duration.Minutes())
	stepMin := int(step.Minutes())

	var slots []bookingRange
	for _, w := range windows {
		for start := minutesOf(w.Start); start+durMin <= minutesOf(w.End); start += stepMin {
			slots = append(slots, bookingRange{
				start: clockOf(start),
				end:   clockOf(start + durMin),
			})
		}
	}
	return slots
}

func dayIsFree(bookings []bookingRange, slot bookingRange, gap time.Duration) bool {
	for _, b := range bookings {
		if conflicts(slot.start, slot.end, b, gap) {
			return false
		}
	}
	return true
}

// minutesOf converts "HH:MM" to minutes since midnight. Inputs are trusted to
// be pre-validated zero-padded clock strings.
func minutesOf(clock string) int {
	if len(clock) != 5 {
		return 0
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	return h*60 + m
}

func clockOf(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
