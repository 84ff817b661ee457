package perf

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/palmares/internal/domain/model"
)

// FormatTime renders seconds as m'ss''cc from one minute up and as ss''cc
// below. Rounding happens once, at the centisecond, so carries propagate:
// 62.999 renders as 1'03''00.
func FormatTime(seconds float64) string {
	cs := centiseconds(seconds)
	if cs >= 6000 {
		return fmt.Sprintf("%d'%02d''%02d", cs/6000, cs%6000/100, cs%100)
	}
	return fmt.Sprintf("%d''%02d", cs/100, cs%100)
}

// FormatSeconds renders a sub-minute time as ss.cc; longer times fall back
// to FormatTime.
func FormatSeconds(seconds float64) string {
	cs := centiseconds(seconds)
	if cs >= 6000 {
		return FormatTime(seconds)
	}
	return fmt.Sprintf("%d.%02d", cs/100, cs%100)
}

// FormatValue renders a canonical value the way the archive writes it.
func FormatValue(kind model.MetricKind, v float64) string {
	switch kind {
	case model.MetricTime:
		return FormatTime(v)
	case model.MetricDistance:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
}

func centiseconds(seconds float64) int64 {
	if seconds < 0 {
		seconds = 0
	}
	return int64(math.Round(seconds * 100))
}
