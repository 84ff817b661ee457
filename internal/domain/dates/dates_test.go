package dates_test

import (
	"testing"
	"time"

	"github.com/okian/palmares/internal/domain/dates"
	. "github.com/smartystreets/goconvey/convey"
)

func noon(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	Convey("Given French day-month dates with a year hint", t, func() {
		cases := []struct {
			raw  string
			want time.Time
		}{
			{"12 mars", noon(2024, time.March, 12)},
			{"1er mai", noon(2024, time.May, 1)},
			{"3 févr.", noon(2024, time.February, 3)},
			{"3 Fevrier", noon(2024, time.February, 3)},
			{"15 août", noon(2024, time.August, 15)},
			{"9 déc.", noon(2024, time.December, 9)},
			{"sam. 12 juil.", noon(2024, time.July, 12)},
			{"28 sept 2021", noon(2021, time.September, 28)},
			{"  7   janv  ", noon(2024, time.January, 7)},
		}
		for _, c := range cases {
			got, ok := dates.Parse(c.raw, 2024)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, c.want)
		}
	})

	Convey("Given numeric day/month/year dates", t, func() {
		got, ok := dates.Parse("05/06/23", 0)
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, noon(2023, time.June, 5))

		got, ok = dates.Parse("05/06/2019", 2024)
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, noon(2019, time.June, 5))

		Convey("When the year is missing the hint is used", func() {
			got, ok := dates.Parse("12/03", 2022)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, noon(2022, time.March, 12))
		})
	})

	Convey("Given generic date formats", t, func() {
		got, ok := dates.Parse("2024-03-12", 0)
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, noon(2024, time.March, 12))

		got, ok = dates.Parse("2024-03-12T08:30:00Z", 0)
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, time.Date(2024, time.March, 12, 8, 30, 0, 0, time.UTC))
	})

	Convey("Given dates that cannot be resolved", t, func() {
		for _, raw := range []string{"", "31/02/24", "30 février", "32 mars", "12 brumaire", "hier", "00/01/24", "12/13/24"} {
			_, ok := dates.Parse(raw, 2024)
			So(ok, ShouldBeFalse)
		}

		Convey("Then a day-month without any year is unparseable", func() {
			_, ok := dates.Parse("12 mars", 0)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given MustParse", t, func() {
		So(dates.MustParse("12 mars", 2024), ShouldEqual, noon(2024, time.March, 12))
		So(func() { dates.MustParse("nope", 2024) }, ShouldPanic)
	})
}
