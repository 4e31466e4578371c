package timesync

import (
	"testing"
	"time"
)

func TestConverter_ToWallClock(t *testing.T) {
	base := time.Unix(1000000000, 0) // 2001-09-09 01:46:40 UTC
	converter := NewConverter(base, 5_000_000_000)

	tests := []struct {
		name  string
		nanos int64
		want  time.Time
	}{
		{
			name:  "origin maps to base",
			nanos: 5_000_000_000,
			want:  base,
		},
		{
			name:  "one second past origin",
			nanos: 6_000_000_000,
			want:  base.Add(1 * time.Second),
		},
		{
			name:  "before origin",
			nanos: 4_500_000_000,
			want:  base.Add(-500 * time.Millisecond),
		},
		{
			name:  "mixed offset",
			nanos: 5_000_000_000 + 123_456_789,
			want:  base.Add(123*time.Millisecond + 456*time.Microsecond + 789*time.Nanosecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := converter.ToWallClock(tt.nanos)
			if !got.Equal(tt.want) {
				t.Errorf("ToWallClock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConverter_Base(t *testing.T) {
	base := time.Unix(1700000000, 0)
	converter := NewConverter(base, 0)

	if got := converter.Base(); !got.Equal(base) {
		t.Errorf("Base() = %v, want %v", got, base)
	}
}
