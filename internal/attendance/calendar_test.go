package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition/internal/schedule"
)

func monWed() map[schedule.Weekday]bool {
	return map[schedule.Weekday]bool{schedule.Mon: true, schedule.Wed: true}
}

func cellFor(t *testing.T, cal Calendar, date string) Day {
	t.Helper()
	for _, d := range cal.Days {
		if d.Date == date {
			return d
		}
	}
	t.Fatalf("no cell for %s", date)
	return Day{}
}

func TestBuild_MonWedScenario(t *testing.T) {
	today := time.Date(2024, 6, 12, 18, 45, 0, 0, time.UTC)
	log := map[string]Status{"2024-06-10": Done}

	cal := Build("s1", 2024, time.June, monWed(), log, today)

	assert.Equal(t, Done, cellFor(t, cal, "2024-06-10").Status)
	assert.Equal(t, AutoMissed, cellFor(t, cal, "2024-06-03").Status)
	assert.Equal(t, AutoMissed, cellFor(t, cal, "2024-06-05").Status)
	assert.Equal(t, Upcoming, cellFor(t, cal, "2024-06-12").Status, "today is not past")
	assert.Equal(t, Upcoming, cellFor(t, cal, "2024-06-17").Status)

	// June 2024: Mondays 3,10,17,24 and Wednesdays 5,12,19,26.
	assert.Equal(t, 8, cal.Stats.Total)
	assert.Equal(t, 1, cal.Stats.Completed)
	assert.Equal(t, 7, cal.Stats.Remaining)
	assert.Equal(t, []string{"03", "05"}, cal.Due)
	assert.Len(t, cal.Days, 8)
}

func TestBuild_IrrelevantDaysAreHidden(t *testing.T) {
	today := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	log := map[string]Status{"2024-06-11": Done}

	cal := Build("s1", 2024, time.June, monWed(), log, today)

	for _, d := range cal.Days {
		assert.Contains(t, []schedule.Weekday{schedule.Mon, schedule.Wed}, d.Weekday, d.Date)
	}
}

func TestBuild_StaleMissedEntrySurfaces(t *testing.T) {
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	log := map[string]Status{
		"2024-06-07": Missed, // Friday, no longer scheduled
		"2024-06-05": Missed,
		"2024-06-03": Done,
	}

	cal := Build("s1", 2024, time.June, monWed(), log, today)

	stale := cellFor(t, cal, "2024-06-07")
	assert.Equal(t, Missed, stale.Status)
	assert.True(t, stale.Stale)

	wed := cellFor(t, cal, "2024-06-05")
	assert.Equal(t, Missed, wed.Status)
	assert.False(t, wed.Stale)

	assert.Equal(t, 8, cal.Stats.Total, "stale cells are not counted")
	assert.Equal(t, 1, cal.Stats.Completed)
	// 05 missed, 07 stale, 10 12 17 19 auto-missed; listed once each, ascending.
	assert.Equal(t, []string{"05", "07", "10", "12", "17", "19"}, cal.Due)
}

func TestBuild_MonthLengths(t *testing.T) {
	every := map[schedule.Weekday]bool{}
	for _, d := range schedule.AllWeekdays {
		every[d] = true
	}
	today := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Len(t, Build("s", 2024, time.February, every, nil, today).Days, 29)
	assert.Len(t, Build("s", 2023, time.February, every, nil, today).Days, 28)
	assert.Len(t, Build("s", 2024, time.April, every, nil, today).Days, 30)
	assert.Len(t, Build("s", 2024, time.December, every, nil, today).Days, 31)
}

func TestBuild_Pure(t *testing.T) {
	today := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	log := map[string]Status{"2024-06-10": Done, "2024-06-14": Missed}

	first := Build("s1", 2024, time.June, monWed(), log, today)
	second := Build("s1", 2024, time.June, monWed(), log, today)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Stats.Total, first.Stats.Completed+first.Stats.Remaining)
}

func TestBuild_NoSchedule(t *testing.T) {
	cal := Build("s1", 2024, time.June, nil, nil, time.Now())
	assert.Empty(t, cal.Days)
	assert.Equal(t, Stats{}, cal.Stats)
	assert.Equal(t, "Total: 0  |  Done: 0  |  Left: 0", cal.Stats.String())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("done")
	require.NoError(t, err)
	assert.Equal(t, Done, s)

	_, err = ParseStatus("auto_missed")
	assert.Error(t, err)

	_, err = ParseDateKey("2024-13-01")
	assert.Error(t, err)
}
