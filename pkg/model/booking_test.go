package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "identical ranges",
			a:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			b:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			want: true,
		},
		{
			name: "partial overlap",
			a:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			b:    Interval{date(2026, 1, 11), date(2026, 1, 13)},
			want: true,
		},
		{
			name: "checkout touches checkin",
			a:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			b:    Interval{date(2026, 1, 12), date(2026, 1, 14)},
			want: false,
		},
		{
			name: "checkin touches checkout",
			a:    Interval{date(2026, 1, 12), date(2026, 1, 14)},
			b:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			want: false,
		},
		{
			name: "fully contained",
			a:    Interval{date(2026, 1, 10), date(2026, 1, 20)},
			b:    Interval{date(2026, 1, 12), date(2026, 1, 14)},
			want: true,
		},
		{
			name: "disjoint",
			a:    Interval{date(2026, 1, 10), date(2026, 1, 12)},
			b:    Interval{date(2026, 2, 1), date(2026, 2, 3)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoomInstanceHasConflict(t *testing.T) {
	inst := &RoomInstance{
		Occupied: []Interval{
			{date(2026, 1, 10), date(2026, 1, 12)},
			{date(2026, 1, 20), date(2026, 1, 25)},
		},
	}

	if !inst.HasConflict(Interval{date(2026, 1, 11), date(2026, 1, 13)}) {
		t.Error("expected conflict with first occupied range")
	}
	if inst.HasConflict(Interval{date(2026, 1, 12), date(2026, 1, 20)}) {
		t.Error("gap between stays must be bookable")
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := date(2026, 3, 1)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    BookingStatus
		expiresAt *time.Time
		want      BookingStatus
	}{
		{"pending not yet expired", StatusPending, &future, StatusPending},
		{"pending past expiry", StatusPending, &past, StatusCancelled},
		{"pending without expiry", StatusPending, nil, StatusPending},
		{"confirmed ignores expiry", StatusConfirmed, &past, StatusConfirmed},
		{"cancelled stays cancelled", StatusCancelled, &past, StatusCancelled},
		{"completed stays completed", StatusCompleted, nil, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveStatus(tt.status, tt.expiresAt, now); got != tt.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEffectiveStatusExactExpiryInstant(t *testing.T) {
	now := date(2026, 3, 1)
	at := now
	// now == expiresAt is not yet past the hold deadline
	if got := EffectiveStatus(StatusPending, &at, now); got != StatusPending {
		t.Errorf("EffectiveStatus at exact expiry = %s, want %s", got, StatusPending)
	}
}
