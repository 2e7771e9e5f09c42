package sztype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    time.Time
		ticks uint64
		back  time.Time
	}{
		{
			name:  "filetime epoch",
			in:    time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC),
			ticks: 0,
			back:  time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "half a second after filetime epoch",
			in:    time.Date(1601, 1, 1, 0, 0, 0, 500_000_000, time.UTC),
			ticks: 5_000_000,
			back:  time.Date(1601, 1, 1, 0, 0, 0, 500_000_000, time.UTC),
		},
		{
			name:  "unix epoch",
			in:    time.Unix(0, 0),
			ticks: 116444736000000000,
			back:  time.Unix(0, 0).UTC(),
		},
		{
			name:  "one tick after unix epoch",
			in:    time.Unix(0, 100),
			ticks: 116444736000000001,
			back:  time.Unix(0, 100).UTC(),
		},
		{
			name:  "sub-tick nanoseconds truncate",
			in:    time.Unix(0, 199),
			ticks: 116444736000000001,
			back:  time.Unix(0, 100).UTC(),
		},
		{
			name:  "sub-second precision",
			in:    time.Date(2024, 3, 9, 16, 20, 11, 123_456_700, time.UTC),
			ticks: (1710001211+11644473600)*10_000_000 + 1_234_567,
			back:  time.Date(2024, 3, 9, 16, 20, 11, 123_456_700, time.UTC),
		},
		{
			name:  "non-UTC zone",
			in:    time.Date(2024, 3, 9, 17, 20, 11, 0, time.FixedZone("CET", 3600)),
			ticks: (1710001211 + 11644473600) * 10_000_000,
			back:  time.Date(2024, 3, 9, 16, 20, 11, 0, time.UTC),
		},
		{
			name:  "before 1601 clamps",
			in:    time.Date(1600, 12, 31, 23, 59, 59, 0, time.UTC),
			ticks: 0,
			back:  time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FileTime(tt.in)
			assert.Equal(t, tt.ticks, got)

			back := TimeFromFileTime(got)
			assert.True(t, back.Equal(tt.back), "TimeFromFileTime(%d) = %v, want %v", got, back, tt.back)
			assert.Equal(t, time.UTC, back.Location())
		})
	}
}
