package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/VINCENT-bot354/safaribytes/api/validators"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

const defaultPreset = "30d"

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// presetDays maps a rolling window name to its length. "today" is handled
// separately because it starts at local midnight.
var presetDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// resolveSummaryRange reads start/end calendar dates in the business timezone.
// end is inclusive, so the window closes at the following local midnight.
// Without dates a preset ending now is used.
func resolveSummaryRange(r *http.Request, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := validators.ParseQueryDate(r, "start", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := validators.ParseQueryDate(r, "end", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	switch {
	case start == nil && end == nil:
		return presetRange(r.URL.Query().Get("preset"), now, loc)
	case start == nil || end == nil:
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start and end must be provided together")
	case end.Before(*start):
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	return start.UTC(), end.AddDate(0, 0, 1).UTC(), nil
}

func presetRange(raw string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		name = defaultPreset
	}
	if name == "today" {
		local := now.In(loc)
		midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return midnight.UTC(), now, nil
	}
	days, ok := presetDays[name]
	if !ok {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset").
			WithDetails(map[string]any{"preset": raw})
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour), now, nil
}
