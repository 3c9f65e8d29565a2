package analysis

import (
	"testing"
	"time"
)

func TestDateOf_UsesTimestampLocation(t *testing.T) {
	t.Parallel()

	stockholm := time.FixedZone("UTC+01", 3600)
	ts := time.Date(2017, time.January, 3, 23, 30, 0, 0, time.UTC).In(stockholm)
	got := DateOf(ts)
	if want := day(2017, time.January, 4); !got.Equal(want) {
		t.Fatalf("DateOf=%v, want %v", got, want)
	}
}

func TestAddMonths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"same day", day(2017, time.March, 15), 1, day(2017, time.April, 15)},
		{"clamp to feb", day(2017, time.January, 31), 1, day(2017, time.February, 28)},
		{"clamp to leap feb", day(2016, time.January, 31), 1, day(2016, time.February, 29)},
		{"year rollover", day(2017, time.November, 1), 3, day(2018, time.February, 1)},
		{"backwards", day(2017, time.January, 1), -1, day(2016, time.December, 1)},
		{"zero", day(2017, time.May, 31), 0, day(2017, time.May, 31)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := AddMonths(tc.in, tc.n); !got.Equal(tc.want) {
				t.Fatalf("AddMonths(%v, %d)=%v, want %v", tc.in, tc.n, got, tc.want)
			}
		})
	}
}

func TestDiffMonthAndDaysBetween(t *testing.T) {
	t.Parallel()

	if got := DiffMonth(day(2018, time.February, 28), day(2017, time.November, 1)); got != 3 {
		t.Fatalf("DiffMonth=%d, want 3", got)
	}
	if got := DiffMonth(day(2017, time.January, 31), day(2017, time.January, 1)); got != 0 {
		t.Fatalf("DiffMonth same month=%d, want 0", got)
	}
	if got := DaysBetween(day(2016, time.February, 28), day(2016, time.March, 1)); got != 2 {
		t.Fatalf("DaysBetween across leap day=%d, want 2", got)
	}
}
