package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/roster/core/metrics"
	"github.com/kilianp07/roster/infra/logger"
)

// InfluxSink writes planning runs to InfluxDB: one roster_day point per date
// and one roster_driver point per driver.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func dayPoints(ev coremetrics.PlanEvent) []*write.Point {
	var pts []*write.Point
	for _, d := range ev.Plan.Days {
		pts = append(pts, write.NewPointWithMeasurement("roster_day").
			AddTag("plan_id", ev.PlanID).
			AddTag("weekday", strings.ToLower(d.Weekday.String())).
			AddTag("status", string(d.Status)).
			AddField("routes", d.Routes).
			AddField("assigned", d.Assigned).
			AddField("fixed", d.Fixed).
			AddField("optimized", d.Optimized).
			AddField("unassigned", d.Unassigned).
			AddField("rate", round3(d.Rate)).
			AddField("nodes", d.Nodes).
			AddField("elapsed_ms", round3(float64(d.Elapsed)/float64(time.Millisecond))).
			SetTime(d.Date.Time()))
	}
	return pts
}

func driverPoints(ev coremetrics.PlanEvent) []*write.Point {
	var pts []*write.Point
	for _, u := range ev.Plan.Drivers {
		pts = append(pts, write.NewPointWithMeasurement("roster_driver").
			AddTag("plan_id", ev.PlanID).
			AddTag("driver_id", u.DriverID).
			AddField("budget_hours", round3(u.Budget.Hours())).
			AddField("used_hours", round3(u.Used.Hours())).
			AddField("remaining_hours", round3(u.Remaining.Hours())).
			AddField("routes", u.Routes).
			AddField("utilisation", round3(u.Utilisation)).
			SetTime(ev.Time))
	}
	return pts
}

// RecordPlan writes the day and driver points of ev in one batch.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	if ev.Plan == nil {
		return nil
	}
	pts := append(dayPoints(ev), driverPoints(ev)...)
	if len(pts) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, pts...)
}

// RecordPlanFailure writes a roster_failure point.
func (s *InfluxSink) RecordPlanFailure(ev coremetrics.FailureEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg := ""
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	p := write.NewPointWithMeasurement("roster_failure").
		AddTag("reason", ev.Reason).
		AddField("error", msg).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
