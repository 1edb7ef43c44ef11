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

	coremetrics "github.com/kilianp07/orplan/core/metrics"
	"github.com/kilianp07/orplan/infra/logger"
)

// InfluxSink writes run and iteration points to an InfluxDB instance.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
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

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so an unreachable database never blocks a run.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
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

// RecordRun writes one colgen_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(ev))
}

// RecordIteration writes one colgen_iteration point.
func (s *InfluxSink) RecordIteration(ev coremetrics.IterationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, iterationPoint(ev))
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func runPoint(ev coremetrics.RunEvent) *write.Point {
	p := write.NewPointWithMeasurement("colgen_run")
	if ev.Category != "" {
		p = p.AddTag("category", ev.Category)
	}
	status := ev.Status
	if ev.Error != "" {
		status = "failed"
	}
	p = p.AddTag("status", status).
		AddField("run_id", ev.RunID).
		AddField("rooms", ev.Rooms).
		AddField("objective", round3(ev.Objective)).
		AddField("iterations", ev.Iterations).
		AddField("pool_size", ev.PoolSize).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return p.SetTime(ev.Time)
}

func iterationPoint(ev coremetrics.IterationEvent) *write.Point {
	p := write.NewPointWithMeasurement("colgen_iteration")
	if ev.Category != "" {
		p = p.AddTag("category", ev.Category)
	}
	return p.AddTag("run_id", ev.RunID).
		AddField("iteration", ev.Iteration).
		AddField("pool_size", ev.PoolSize).
		AddField("objective", round3(ev.Objective)).
		AddField("reduced_cost", round3(ev.ReducedCost)).
		SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
