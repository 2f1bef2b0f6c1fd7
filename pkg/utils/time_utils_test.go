package utils

import (
	"testing"
	"time"
)

func TestMillisRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		millis int64
	}{
		{
			name:   "Epoch",
			millis: 0,
		},
		{
			name:   "Recent timestamp",
			millis: 1700000000000,
		},
		{
			name:   "Current time",
			millis: GetCurrentTimeMillis(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TimeToMillis(MillisToTime(tt.millis))
			if result != tt.millis {
				t.Errorf("TimeToMillis(MillisToTime(%d)) = %d, want %d", tt.millis, result, tt.millis)
			}
		})
	}
}

func TestFormatAndParseTime(t *testing.T) {
	original := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

	formatted := FormatTime(original)
	parsed, err := ParseTime(formatted)
	if err != nil {
		t.Fatalf("ParseTime(%q) returned error: %v", formatted, err)
	}
	if !parsed.Equal(original) {
		t.Errorf("ParseTime(FormatTime(t)) = %v, want %v", parsed, original)
	}
}

func TestParseTime_Invalid(t *testing.T) {
	if _, err := ParseTime("15/03/2026"); err == nil {
		t.Error("ParseTime should reject non-RFC3339 input")
	}
}

func TestIsFutureTime(t *testing.T) {
	skew := 5 * time.Minute
	tests := []struct {
		name     string
		millis   int64
		expected bool
	}{
		{
			name:     "Past timestamp",
			millis:   GetCurrentTimeMillis() - time.Hour.Milliseconds(),
			expected: false,
		},
		{
			name:     "Slightly ahead within skew",
			millis:   GetCurrentTimeMillis() + time.Minute.Milliseconds(),
			expected: false,
		},
		{
			name:     "Beyond allowed skew",
			millis:   GetCurrentTimeMillis() + time.Hour.Milliseconds(),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsFutureTime(tt.millis, skew)
			if result != tt.expected {
				t.Errorf("IsFutureTime(%d, %v) = %v, want %v", tt.millis, skew, result, tt.expected)
			}
		})
	}
}

func TestDaysFromNow(t *testing.T) {
	now := GetCurrentTimeMillis()
	result := DaysFromNow(30)

	const thirtyDaysMillis = int64(30) * 24 * 60 * 60 * 1000
	diff := result - now
	if diff < thirtyDaysMillis || diff > thirtyDaysMillis+1000 {
		t.Errorf("DaysFromNow(30) - now = %d, want about %d", diff, thirtyDaysMillis)
	}
}
