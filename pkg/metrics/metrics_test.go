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

			Convey("Then every collector is registered", func() {
				So(manager, ShouldNotBeNil)
				manager.samplePointsQueried.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("scraper"),
				WithMetricPrefix("x"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithCustomLabels(map[string]string{"run_id": "r-1"}),
				WithPrometheusRegistry(registry),
			)
			manager.provincesWritten.Inc()

			Convey("Then names and labels follow the options", func() {
				expected := `
# HELP test_scraper_x_provinces_written_total Province documents written
# TYPE test_scraper_x_provinces_written_total counter
test_scraper_x_provinces_written_total{run_id="r-1"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_scraper_x_provinces_written_total")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording portal traffic", func() {
			before := testutil.ToFloat64(globalManager.portalRequests.WithLabelValues("point_query", "ok"))
			RecordPortalRequest("point_query", "ok", 12)
			RecordTokenAcquisition("ok")
			RecordTokenExpiryRetry("point_query")
			RecordNetworkRetry("point_query")

			Convey("Then the counters move", func() {
				after := testutil.ToFloat64(globalManager.portalRequests.WithLabelValues("point_query", "ok"))
				So(after-before, ShouldEqual, 1.0)
			})
		})

		Convey("When recording resolution and walk progress", func() {
			before := testutil.ToFloat64(globalManager.gatheringAreasFound)
			RecordSamplePoints(5)
			RecordNeighborhoodResolved(2, 40)
			RecordNeighborhoodFailed("transient")
			RecordUniqueGatheringArea()
			RecordProvinceWritten()
			RecordProvinceFailed()
			RecordDistrictFailed()
			AddWorkersInFlight(1)
			AddWorkersInFlight(-1)
			UpdateQueueDepth(3)
			RecordQueueEnqueueError()
			RecordHTTPRequest("healthz", "GET", "200", 1)

			Convey("Then the found-areas counter adds the batch", func() {
				So(testutil.ToFloat64(globalManager.gatheringAreasFound)-before, ShouldEqual, 2.0)
				So(testutil.ToFloat64(globalManager.queueDepth), ShouldEqual, 3.0)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
