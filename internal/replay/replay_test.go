package replay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/palmares/internal/adapters/http/api"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestVerifyTimelineOrder(t *testing.T) {
	Convey("Given timelines", t, func() {
		ordered := types.Timeline{Points: []model.TimelinePoint{
			{Date: day(2023, 5, 1)}, {Date: day(2023, 5, 1)}, {Date: day(2024, 1, 2)},
		}}
		shuffled := types.Timeline{Points: []model.TimelinePoint{
			{Date: day(2024, 1, 2)}, {Date: day(2023, 5, 1)},
		}}

		So(verifyTimelineOrder(ordered), ShouldBeEmpty)
		errs := verifyTimelineOrder(shuffled)
		So(len(errs), ShouldEqual, 1)
		So(errs[0].Error(), ShouldContainSubstring, "2023-05-01")
	})
}

func TestVerifyRecordsInMerged(t *testing.T) {
	Convey("Given a merged view", t, func() {
		d := day(2023, 6, 10)
		merged := types.Timeline{Points: []model.TimelinePoint{
			{Discipline: "100m", Date: d, Value: model.NumberValue(10.6)},
		}}
		v := 10.6
		other := 10.4

		Convey("A record present in the view passes", func() {
			recs := []types.RecordView{{Discipline: "100M", Record: types.Mark{Raw: "10''60", Value: &v, Date: &d}}}
			So(verifyRecordsInMerged(recs, merged), ShouldBeEmpty)
		})

		Convey("A record absent from the view is reported", func() {
			recs := []types.RecordView{{Discipline: "100m", Record: types.Mark{Raw: "10''40", Value: &other, Date: &d}}}
			So(len(verifyRecordsInMerged(recs, merged)), ShouldEqual, 1)
		})

		Convey("An undated record is skipped", func() {
			recs := []types.RecordView{{Discipline: "200m", Record: types.Mark{Raw: "21''00", Value: &v}}}
			So(verifyRecordsInMerged(recs, merged), ShouldBeEmpty)
		})
	})
}

func TestAthleteURL(t *testing.T) {
	Convey("Athlete IDs are escaped into the path", t, func() {
		So(athleteURL("http://h:1/", "a b", "records"), ShouldEqual, "http://h:1/athletes/a%20b/records")
		So(athleteURL("http://h:1", "a1", ""), ShouldEqual, "http://h:1/athletes/a1")
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service and a page directory", t, func() {
		ctx := context.Background()
		root := t.TempDir()
		row := func(date, event, perf string) string {
			return "<tr><td>" + date + "</td><td>" + event + "</td><td>" + perf + "</td><td>+0.5</td><td>Finale</td><td>1</td><td>N1</td><td></td><td>Lyon</td></tr>"
		}
		write := func(rel string, rows ...string) {
			p := filepath.Join(root, rel)
			So(os.MkdirAll(filepath.Dir(p), 0o755), ShouldBeNil)
			So(os.WriteFile(p, []byte("<table>"+strings.Join(rows, "")+"</table>"), 0o600), ShouldBeNil)
		}
		write("a1/2023/p1.html", row("10/06/23", "100m", "10''60"), row("11/06/23", "Longueur", "7m25"))
		write("a1/2024/p1.html", row("01/06/24", "100m", "10''70"))
		write("b2/2024/p1.html", row("02/06/24", "800m", "1'52''30"))
		So(os.MkdirAll(filepath.Join(root, "c3", "2024"), 0o755), ShouldBeNil)

		svc := service.New(service.WithWorkerCount(2), service.WithCurrentYear(2024))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &Config{
			BaseURL: srv.URL,
			Dir:     root,
			Workers: 2,
			Timeout: 5 * time.Second,
			Settle:  10 * time.Second,
		}

		Convey("When replaying the directory", func() {
			err := Run(ctx, cfg)

			Convey("Then every season is ingested and verified", func() {
				So(err, ShouldBeNil)
				views, err := svc.Records(ctx, "a1")
				So(err, ShouldBeNil)
				So(len(views), ShouldEqual, 2)

				_, err = svc.Profile(ctx, "c3")
				So(err, ShouldNotBeNil)
			})

			Convey("And replaying again only yields duplicates", func() {
				stats := &Stats{}
				_, subs, err := collectSubmissions(ctx, cfg, stats)
				So(err, ShouldBeNil)
				So(stats.Athletes, ShouldEqual, 2)
				submitSeasons(ctx, cfg, subs, stats)
				So(stats.SeasonsDuplicate, ShouldEqual, 3)
				So(stats.SeasonsFailed, ShouldEqual, 0)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			cfg.Timeout = 200 * time.Millisecond
			So(Run(ctx, cfg), ShouldNotBeNil)
		})
	})
}
