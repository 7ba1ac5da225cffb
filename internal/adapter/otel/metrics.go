// Package otel provides OpenTelemetry instrumentation for SwarmForge.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "swarmforge"

// Metrics holds all SwarmForge metric instruments.
type Metrics struct {
	MessagesSent      metric.Int64Counter
	MessagesDropped   metric.Int64Counter
	Broadcasts        metric.Int64Counter
	TasksCreated      metric.Int64Counter
	TasksCompleted    metric.Int64Counter
	RequestsStarted   metric.Int64Counter
	RequestsCompleted metric.Int64Counter
	RequestDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.MessagesSent, err = meter.Int64Counter("swarmforge.messages.sent",
		metric.WithDescription("Number of messages delivered to a mailbox"))
	if err != nil {
		return nil, err
	}

	m.MessagesDropped, err = meter.Int64Counter("swarmforge.messages.dropped",
		metric.WithDescription("Number of messages dropped for an unknown recipient"))
	if err != nil {
		return nil, err
	}

	m.Broadcasts, err = meter.Int64Counter("swarmforge.messages.broadcast",
		metric.WithDescription("Number of broadcast fan-outs"))
	if err != nil {
		return nil, err
	}

	m.TasksCreated, err = meter.Int64Counter("swarmforge.tasks.created",
		metric.WithDescription("Number of tasks created by the coordinator"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("swarmforge.tasks.completed",
		metric.WithDescription("Number of tasks completed by workers"))
	if err != nil {
		return nil, err
	}

	m.RequestsStarted, err = meter.Int64Counter("swarmforge.requests.started",
		metric.WithDescription("Number of pipeline requests started"))
	if err != nil {
		return nil, err
	}

	m.RequestsCompleted, err = meter.Int64Counter("swarmforge.requests.completed",
		metric.WithDescription("Number of pipeline requests completed"))
	if err != nil {
		return nil, err
	}

	m.RequestDuration, err = meter.Float64Histogram("swarmforge.request.duration_seconds",
		metric.WithDescription("Request pipeline duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
