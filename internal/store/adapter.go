package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/cqlfire/internal/metrics"
	"github.com/torosent/cqlfire/internal/tracing"
	"github.com/torosent/cqlfire/internal/workload"
)

const (
	insertCQL = `INSERT INTO sensor_data (device_id, ts, value) VALUES (?, ?, ?)`
	selectCQL = `SELECT device_id, ts, value FROM sensor_data WHERE device_id = ? LIMIT 50`
)

// Adapter executes one operation at a time against the store. The
// underlying session pools connections internally and is safe for
// concurrent use, so a single adapter is shared by all workers.
type Adapter struct {
	session     *gocql.Session
	consistency gocql.Consistency
	devices     []string
	tracer      trace.Tracer
	keyspace    string
}

// NewAdapter builds an adapter over an open session. devices maps the
// workload's device indexes to the persisted identifiers.
func NewAdapter(session *gocql.Session, consistency string, devices []string, tracer trace.Tracer, keyspace string) (*Adapter, error) {
	cl, err := ParseConsistency(consistency)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("device pool is empty")
	}
	return &Adapter{
		session:     session,
		consistency: cl,
		devices:     devices,
		tracer:      tracer,
		keyspace:    keyspace,
	}, nil
}

// Execute performs the read or write and measures the round trip only.
// Every failure comes back inside the Result; the worker loop never sees
// an error any other way.
func (a *Adapter) Execute(ctx context.Context, op workload.Operation) metrics.Result {
	device := a.devices[op.DeviceID%len(a.devices)]

	var span trace.Span
	if a.tracer != nil {
		ctx, span = tracing.StartOpSpan(ctx, a.tracer, op.Kind.String(), a.keyspace)
	}

	start := time.Now()
	var err error
	switch op.Kind {
	case workload.Write:
		err = a.session.Query(insertCQL, device, op.Timestamp, op.Value).
			WithContext(ctx).
			Consistency(a.consistency).
			Exec()
	default:
		iter := a.session.Query(selectCQL, device).
			WithContext(ctx).
			Consistency(a.consistency).
			Iter()
		var (
			id    string
			ts    time.Time
			value float64
		)
		for iter.Scan(&id, &ts, &value) {
		}
		err = iter.Close()
	}
	latency := time.Since(start)

	if span != nil {
		tracing.EndSpan(span, err, attribute.String("db.cassandra.device_id", device))
	}

	return metrics.Result{Kind: op.Kind, Latency: latency, Err: err}
}
