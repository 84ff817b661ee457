package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/ingest"
	"github.com/okian/palmares/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIngest(t *testing.T) {
	Convey("Given a service with a page source", t, func() {
		archive := map[int][]string{
			2022: {page(row("05/05/22", "400m", "49''80", ""))},
			2023: {page(row("06/05/23", "400m", "48''90", ""))},
		}
		src := ingest.PageSourceFunc(func(_ context.Context, athleteID string, year int) ([]string, error) {
			if athleteID != "a1" {
				return nil, ingest.ErrAthleteNotFound
			}
			if year == 2021 {
				return nil, errors.New("upstream timeout")
			}
			return archive[year], nil
		})
		svc, ctx := started(service.WithPageSource(src))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When pulling seasons including a failing one", func() {
			rep, err := svc.Ingest(ctx, "a1", []int{2021, 2022, 2023})

			Convey("Then the other seasons are kept and the failure reported", func() {
				So(err, ShouldBeNil)
				So(rep.Found, ShouldBeTrue)
				So(rep.Partial(), ShouldBeTrue)
				So(rep.Succeeded, ShouldResemble, []int{2022, 2023})

				views, err := svc.Records(ctx, "a1")
				So(err, ShouldBeNil)
				So(len(views), ShouldEqual, 1)
				So(views[0].Record.Raw, ShouldEqual, "48''90")
				// No 2024 mark, so the season best falls back to the record.
				So(views[0].SeasonBest.Raw, ShouldEqual, "48''90")
			})
		})

		Convey("When the athlete is unknown to the archive", func() {
			rep, err := svc.Ingest(ctx, "ghost", []int{2023})

			So(err, ShouldBeNil)
			So(rep.Found, ShouldBeFalse)
			_, err = svc.Profile(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a year is out of range", func() {
			_, err := svc.Ingest(ctx, "a1", []int{23})
			So(errors.Is(err, ingest.ErrInvalidYear), ShouldBeTrue)
		})
	})

	Convey("Given a service without a page source", t, func() {
		svc, ctx := started()
		defer func() { _ = svc.Stop(ctx) }()

		_, err := svc.Ingest(ctx, "a1", []int{2023})
		So(errors.Is(err, service.ErrNoPageSource), ShouldBeTrue)
	})
}

func TestServiceSeed(t *testing.T) {
	Convey("Given a page directory with two athletes", t, func() {
		root := t.TempDir()
		write := func(rel, content string) {
			p := filepath.Join(root, rel)
			So(os.MkdirAll(filepath.Dir(p), 0o755), ShouldBeNil)
			So(os.WriteFile(p, []byte(content), 0o600), ShouldBeNil)
		}
		write("a1/2024/p1.html", page(row("01/06/24", "Hauteur", "2m05", "")))
		write("a1/2024/p2.html", page(row("08/06/24", "Hauteur", "2m10", "")))
		write("b2/2023/p1.html", page(row("12/07/23", "Décathlon", "7 412 pts", "")))

		svc, ctx := started(service.WithStore(repository.DriverSQLite, filepath.Join(t.TempDir(), "profiles.db")))
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When seeding", func() {
			reports, err := svc.Seed(ctx, root)

			Convey("Then every athlete is stored", func() {
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, 2)
				So(svc.GetStats()["totalAthletes"], ShouldEqual, 2)

				p, err := svc.Profile(ctx, "a1")
				So(err, ShouldBeNil)
				So(p.Records["Hauteur"], ShouldEqual, "2m10")

				views, err := svc.Records(ctx, "b2")
				So(err, ShouldBeNil)
				So(*views[0].Points, ShouldEqual, 7412.0)
			})
		})

		Convey("When the directory does not exist", func() {
			_, err := svc.Seed(ctx, filepath.Join(root, "missing"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given concurrent submissions for one athlete", t, func() {
		svc, ctx := started(service.WithWorkerCount(4), service.WithQueueSize(64))
		defer func() { _ = svc.Stop(ctx) }()

		years := []int{2018, 2019, 2020, 2021, 2022, 2023}
		var wg sync.WaitGroup
		for _, y := range years {
			wg.Add(1)
			go func() {
				defer wg.Done()
				markup := page(row("01/06/"+itoa2(y), "200m", "21''"+itoa2(y), "+0.4"))
				_, _ = svc.Submit(ctx, "a1", types.Submission{Year: y, Pages: []string{markup}})
			}()
		}
		wg.Wait()

		Convey("Then every season survives the read-modify-write cycles", func() {
			deadline := time.Now().Add(5 * time.Second)
			seasons := 0
			for time.Now().Before(deadline) {
				if p, err := svc.Profile(ctx, "a1"); err == nil {
					seasons = len(p.ResultsByYear)
					if seasons == len(years) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
			}
			So(seasons, ShouldEqual, len(years))

			views, err := svc.Records(ctx, "a1")
			So(err, ShouldBeNil)
			So(views[0].Record.Raw, ShouldEqual, "21''18")
		})
	})
}

func itoa2(year int) string {
	return string(rune('0'+year/10%10)) + string(rune('0'+year%10))
}
