package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics use the palmares namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.submissionsAccepted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "palmares_ingest_submissions_accepted_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.yearsIngested.Add(2)
				So(testutil.ToFloat64(manager.yearsIngested), ShouldEqual, 2)

				count, err := testutil.GatherAndCount(registry, "test_sub_years_ingested_total")
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)

				err = testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP test_sub_years_ingested_total Athlete seasons merged into a profile
# TYPE test_sub_years_ingested_total counter
test_sub_years_ingested_total{env="test"} 2
`), "test_sub_years_ingested_total")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.submissionsAccepted)
			RecordSubmissionAccepted()
			RecordSubmissionAccepted()
			So(testutil.ToFloat64(globalManager.submissionsAccepted), ShouldEqual, before+2)

			rows := testutil.ToFloat64(globalManager.rowsDropped)
			RecordRows(10, 3)
			So(testutil.ToFloat64(globalManager.rowsDropped), ShouldEqual, rows+3)

			UpdateTotalAthletes(42)
			So(testutil.ToFloat64(globalManager.totalAthletes), ShouldEqual, 42)

			So(func() {
				RecordSubmissionDuplicate()
				RecordSubmissionRejected()
				RecordYearIngested()
				RecordYearFailed()
				RecordIngestLatency(12.5)
				RecordProfileUpdated()
				RecordPageExtracted()
				RecordEntryQuality(1, 2, 3)
				RecordRecordComputation()
			}, ShouldNotPanic)
		})

		Convey("When recording query metrics", func() {
			hits := testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit"))
			RecordCacheLookup(true)
			RecordCacheLookup(false)
			So(testutil.ToFloat64(globalManager.cacheLookups.WithLabelValues("hit")), ShouldEqual, hits+1)

			So(func() {
				RecordTimelineBuild("years")
				RecordStoreReadLatency(1)
				RecordStoreWriteLatency(2)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateQueueUtilization(0.07)
			UpdateWorkerCount(4)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)

			So(func() {
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(3)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				RecordWorkerProcessingLatency(4)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/athletes/{id}", "GET", "200")
				RecordHTTPRequestDuration("/athletes/{id}", "GET", "200", 5.0)
				RecordErrorByComponent("ingest", "fetch")
				RecordErrorByEndpoint("/athletes/{id}/pages", "POST", "validation")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			count, err := testutil.GatherAndCount(GetRegistry())
			So(err, ShouldBeNil)
			So(count, ShouldBeGreaterThan, 0)
		})
	})
}
