package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"thesistrack_go/models"
)

// fakeStore serves canned bookings and records how it was queried.
type fakeStore struct {
	bookings   []models.Booking
	fetchCalls int
	lastQuery  []uint
}

func (f *fakeStore) FindByParticipants(_ context.Context, ids []uint) ([]models.Booking, error) {
	f.fetchCalls++
	f.lastQuery = ids
	idSet := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	var out []models.Booking
	for _, b := range f.bookings {
		if _, ok := idSet[b.UserID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertBatch(_ context.Context, bookings []models.Booking) error {
	f.bookings = append(f.bookings, bookings...)
	return nil
}

func (f *fakeStore) DeleteByIDs(_ context.Context, _ []uint) (int64, error)  { return 0, nil }
func (f *fakeStore) DeleteByThesis(_ context.Context, _ uint) (int64, error) { return 0, nil }

func testSettings() Settings {
	return Settings{
		CoordinatorID: 99,
		DayStart:      "09:00",
		DayEnd:        "18:00",
		Windows: []Window{
			{Start: "08:00", End: "11:00"},
			{Start: "13:00", End: "17:00"},
		},
		SlotDuration: 2 * time.Hour,
		Step:         30 * time.Minute,
		MinimumGap:   30 * time.Minute,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   string
		aEnd     string
		expected bool
	}{
		{name: "partial overlap", aStart: "11:00", aEnd: "13:00", expected: true},
		{name: "contained", aStart: "10:30", aEnd: "11:30", expected: true},
		{name: "identical", aStart: "10:00", aEnd: "12:00", expected: true},
		{name: "adjacent after", aStart: "12:00", aEnd: "14:00", expected: false},
		{name: "adjacent before", aStart: "08:00", aEnd: "10:00", expected: false},
		{name: "disjoint", aStart: "14:00", aEnd: "15:00", expected: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, "10:00", "12:00"); got != tc.expected {
				t.Fatalf("Overlaps(%s-%s, 10:00-12:00) = %v, expected %v", tc.aStart, tc.aEnd, got, tc.expected)
			}
		})
	}
}

func TestFindAvailableSlotsInvertedRange(t *testing.T) {
	engine := NewEngine(&fakeStore{}, testSettings())

	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{1},
		DateRangeStart: "2024-06-10",
		DateRangeEnd:   "2024-06-03",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected empty sequence, got %d slots", len(slots))
	}
}

func TestWeekdaysOnlySkipsWeekend(t *testing.T) {
	engine := NewEngine(&fakeStore{}, testSettings())

	// 2024-06-01 is a Saturday, 2024-06-02 a Sunday.
	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{1},
		DateRangeStart: "2024-06-01",
		DateRangeEnd:   "2024-06-02",
		WeekdaysOnly:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected zero candidate dates, got %d slots", len(slots))
	}
}

func TestFindAvailableSlotsFiltersConflicts(t *testing.T) {
	store := &fakeStore{
		bookings: []models.Booking{
			{UserID: 2, Date: "2024-06-03", StartTime: "10:00", EndTime: "12:00", Label: "Proposal defense"},
		},
	}
	engine := NewEngine(store, testSettings())

	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{1, 2, 3, 4},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []CandidateSlot{
		{Date: "2024-06-03", StartTime: "08:00", EndTime: "10:00"},
		{Date: "2024-06-03", StartTime: "13:00", EndTime: "15:00"},
		{Date: "2024-06-03", StartTime: "13:30", EndTime: "15:30"},
		{Date: "2024-06-03", StartTime: "14:00", EndTime: "16:00"},
		{Date: "2024-06-03", StartTime: "14:30", EndTime: "16:30"},
		{Date: "2024-06-03", StartTime: "15:00", EndTime: "17:00"},
	}
	if len(slots) != len(expected) {
		t.Fatalf("expected %d slots, got %d: %v", len(expected), len(slots), slots)
	}
	for i, want := range expected {
		if slots[i] != want {
			t.Fatalf("slot %d: expected %+v, got %+v", i, want, slots[i])
		}
	}
	for _, s := range slots {
		if Overlaps(s.StartTime, s.EndTime, "10:00", "12:00") {
			t.Fatalf("slot %+v overlaps the existing booking", s)
		}
	}
}

func TestBookingFetchIsBatchedAndIncludesCoordinator(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, testSettings())

	_, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{7, 8, 7},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.fetchCalls != 1 {
		t.Fatalf("expected a single batched fetch, got %d", store.fetchCalls)
	}

	want := map[uint]bool{7: false, 8: false, 99: false}
	for _, id := range store.lastQuery {
		if _, ok := want[id]; !ok {
			t.Fatalf("unexpected participant %d in query", id)
		}
		if want[id] {
			t.Fatalf("participant %d queried twice", id)
		}
		want[id] = true
	}
	for id, seen := range want {
		if !seen {
			t.Fatalf("participant %d missing from query", id)
		}
	}
}

func TestCoordinatorBookingBlocksSlot(t *testing.T) {
	store := &fakeStore{
		bookings: []models.Booking{
			// Coordinator (99) is busy even though the caller never listed them.
			{UserID: 99, Date: "2024-06-03", StartTime: "08:00", EndTime: "17:00"},
		},
	}
	engine := NewEngine(store, testSettings())

	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{1},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots while coordinator is booked, got %v", slots)
	}
}

func TestFixedTimeValidation(t *testing.T) {
	engine := NewEngine(&fakeStore{}, testSettings())
	base := SlotRequest{
		ParticipantIDs: []uint{1},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
	}

	tests := []struct {
		name   string
		mutate func(*SlotRequest)
		reason string
	}{
		{
			name:   "start before working day",
			mutate: func(r *SlotRequest) { r.StartTime = "08:30"; r.EndTime = "10:30" },
			reason: ReasonOutsideWorkingHoursStart,
		},
		{
			name:   "end after working day",
			mutate: func(r *SlotRequest) { r.StartTime = "17:00"; r.EndTime = "19:00" },
			reason: ReasonOutsideWorkingHoursEnd,
		},
		{
			name:   "missing end time",
			mutate: func(r *SlotRequest) { r.StartTime = "10:00" },
			reason: ReasonMissingRequiredField,
		},
		{
			name:   "no participants",
			mutate: func(r *SlotRequest) { r.ParticipantIDs = nil },
			reason: ReasonMissingRequiredField,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := engine.FindAvailableSlots(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, verr.Reason)
			}
		})
	}
}

func TestFixedTimeMode(t *testing.T) {
	store := &fakeStore{
		bookings: []models.Booking{
			{UserID: 2, Date: "2024-06-03", StartTime: "10:00", EndTime: "12:00"},
		},
	}
	engine := NewEngine(store, testSettings())

	// Requested window collides with the existing booking.
	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{2},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
		StartTime:      "11:00",
		EndTime:        "13:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected busy window to be rejected, got %v", slots)
	}

	// Back-to-back with the booking is free.
	slots, err = engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{2},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
		StartTime:      "12:00",
		EndTime:        "14:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected the adjacent window to be free, got %v", slots)
	}
}

func TestMinimumGapRule(t *testing.T) {
	store := &fakeStore{
		bookings: []models.Booking{
			{UserID: 2, Date: "2024-06-03", StartTime: "10:00", EndTime: "12:00"},
		},
	}
	engine := NewEngine(store, testSettings())

	// 09:40-10:00 does not overlap but starts within 30 minutes of the
	// existing booking's start.
	slots, err := engine.FindAvailableSlots(context.Background(), SlotRequest{
		ParticipantIDs: []uint{2},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-03",
		StartTime:      "09:40",
		EndTime:        "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected gap rule to reject the slot, got %v", slots)
	}
}

func TestFirstAvailableSlot(t *testing.T) {
	engine := NewEngine(&fakeStore{}, testSettings())

	slot, err := engine.FirstAvailableSlot(context.Background(), SlotRequest{
		ParticipantIDs: []uint{1},
		DateRangeStart: "2024-06-03",
		DateRangeEnd:   "2024-06-04",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot == nil {
		t.Fatal("expected a slot")
	}
	if slot.Date != "2024-06-03" || slot.StartTime != "08:00" {
		t.Fatalf("expected earliest slot 2024-06-03 08:00, got %+v", slot)
	}
}
