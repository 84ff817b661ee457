package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	dedupe "github.com/okian/palmares/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When an ID is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "sub-1")
			second := d.SeenAndRecord(ctx, "sub-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an ID is unrecorded", func() {
			d.SeenAndRecord(ctx, "sub-1")
			d.Unrecord(ctx, "sub-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 0; i < 5; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}

		Convey("Then the oldest IDs are evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "sub-2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "sub-0"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
	})

	Convey("Given concurrent submissions of the same ID", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "same") {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		So(fresh, ShouldEqual, 1)
	})
}

func TestSubmissionID(t *testing.T) {
	Convey("Given submission contents", t, func() {
		a := dedupe.SubmissionID("123", 2024, []string{"<table/>"})

		Convey("Then the ID is a stable name-based UUID", func() {
			So(dedupe.SubmissionID("123", 2024, []string{"<table/>"}), ShouldEqual, a)
			So(dedupe.SubmissionID(" 123 ", 2024, []string{"<table/>"}), ShouldEqual, a)
			parsed, err := uuid.Parse(a)
			So(err, ShouldBeNil)
			So(parsed.Version(), ShouldEqual, uuid.Version(5))
		})

		Convey("Then any difference changes it", func() {
			So(dedupe.SubmissionID("124", 2024, []string{"<table/>"}), ShouldNotEqual, a)
			So(dedupe.SubmissionID("123", 2023, []string{"<table/>"}), ShouldNotEqual, a)
			So(dedupe.SubmissionID("123", 2024, []string{"<table/>", ""}), ShouldNotEqual, a)
		})
	})
}
