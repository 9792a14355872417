package metrics_test

import (
	"testing"

	"github.com/okian/bookability/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(reg), metrics.WithNamespace("test"))

		Convey("Then it registers its collectors there", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})

		Convey("Then a second manager on the same registry panics", func() {
			So(func() { metrics.NewManager(metrics.WithPrometheusRegistry(reg), metrics.WithNamespace("test")) }, ShouldPanic)
		})
	})

	Convey("Given a manager with a subsystem and custom buckets", t, func() {
		reg := prometheus.NewRegistry()
		metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("ranking"),
			metrics.WithLatencyBuckets([]float64{1, 10}),
			metrics.WithScoreBuckets([]float64{50, 100}),
		)

		Convey("Then names carry the subsystem and the score histogram uses the buckets", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)

			var buckets int
			for _, f := range families {
				if f.GetName() == "test_ranking_total_score" {
					buckets = len(f.GetMetric()[0].GetHistogram().GetBucket())
				}
			}
			So(buckets, ShouldEqual, 2)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global registry", t, func() {
		reg := metrics.GetRegistry()

		Convey("When an evaluation is recorded", func() {
			metrics.RecordEvaluation(60, 3, 0.1)
			metrics.UpdateLevelDistribution(3, 7)

			Convey("Then the evaluation families are exposed", func() {
				n, err := testutil.GatherAndCount(reg,
					"bookability_service_evaluations_total",
					"bookability_service_level_evaluations_total",
					"bookability_service_level_distribution",
				)
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When HTTP and error metrics are recorded", func() {
			So(func() {
				metrics.RecordHTTPRequest("score", "POST", "200")
				metrics.RecordHTTPRequestDuration("score", "POST", "200", 1.5)
				metrics.RecordErrorByEndpoint("score", "POST", "client_error")
				metrics.RecordErrorByType("client_error", "medium")
				metrics.RecordErrorLatency("http", "client_error", 1)
				metrics.RecordRateLimited("snapshots")
			}, ShouldNotPanic)
		})
	})
}
