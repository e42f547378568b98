package models

import (
	"testing"
	"time"
)

func TestExpiryAfterFixedDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan SubscriptionPlan
		want time.Time
	}{
		{
			name: "thirty days",
			plan: SubscriptionPlan{DurationDays: 30},
			want: time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "one year",
			plan: SubscriptionPlan{DurationDays: 365},
			want: time.Date(2027, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "invalid rule falls back to duration",
			plan: SubscriptionPlan{DurationDays: 30, RenewalRule: strPtr("not-an-rrule")},
			want: time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.plan.ExpiryAfter(start)
			if !got.Equal(tt.want) {
				t.Errorf("ExpiryAfter(%v) = %v, want %v", start, got, tt.want)
			}
		})
	}
}

func TestExpiryAfterRenewalRule(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	plan := SubscriptionPlan{
		DurationDays: 30,
		RenewalRule:  strPtr("FREQ=MONTHLY;INTERVAL=1"),
	}

	got := plan.ExpiryAfter(start)
	want := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ExpiryAfter(%v) = %v, want %v", start, got, want)
	}
}

func TestPaymentIsTerminal(t *testing.T) {
	tests := []struct {
		status PaymentStatus
		want   bool
	}{
		{PaymentStatusPending, false},
		{PaymentStatusCompleted, true},
		{PaymentStatusFailed, true},
	}
	for _, tt := range tests {
		p := Payment{Status: tt.status}
		if p.IsTerminal() != tt.want {
			t.Errorf("IsTerminal() with status %s = %v, want %v", tt.status, p.IsTerminal(), tt.want)
		}
	}
}

func strPtr(s string) *string { return &s }
