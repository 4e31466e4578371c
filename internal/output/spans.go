package output

import (
	"context"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ammarwa/rocpd-stream/internal/stream"
	"github.com/ammarwa/rocpd-stream/internal/timesync"
)

// SpanExporter pairs start/end event messages back into OpenTelemetry
// spans. A span opens on an "*_start" event and closes on the matching
// "*_end" event from the same channel and operation; payload fields
// become span attributes on close.
type SpanExporter struct {
	tracer trace.Tracer
	conv   *timesync.Converter

	// open spans, keyed by channel and operation name. A stack per key
	// handles nested regions with the same name.
	open map[string][]trace.Span
}

// NewSpanExporter creates a span exporter using the given tracer and
// time converter.
func NewSpanExporter(tracer trace.Tracer, conv *timesync.Converter) *SpanExporter {
	return &SpanExporter{
		tracer: tracer,
		conv:   conv,
		open:   make(map[string][]trace.Span),
	}
}

// HandleChannelBegin is a no-op: channel framing does not map to spans.
func (e *SpanExporter) HandleChannelBegin(string) error { return nil }

// HandleChannelEnd is a no-op.
func (e *SpanExporter) HandleChannelEnd(string) error { return nil }

// HandleEvent opens or closes a span depending on the event type suffix.
// Events that are neither starts nor ends are ignored.
func (e *SpanExporter) HandleEvent(msg *stream.Message) error {
	eventType, _ := msg.Fields["event_type"].(string)

	switch {
	case strings.HasSuffix(eventType, "_start"):
		key := msg.Channel + "/" + operationName(msg)
		_, span := e.tracer.Start(context.Background(), operationName(msg),
			trace.WithTimestamp(e.conv.ToWallClock(msg.Timestamp)))
		e.open[key] = append(e.open[key], span)

	case strings.HasSuffix(eventType, "_end"):
		key := msg.Channel + "/" + operationName(msg)
		spans := e.open[key]
		if len(spans) == 0 {
			log.WithField("operation", key).Warn("end event without matching start")
			return nil
		}
		span := spans[len(spans)-1]
		e.open[key] = spans[:len(spans)-1]

		span.SetAttributes(fieldAttributes(msg)...)
		span.SetStatus(codes.Ok, "")
		span.End(trace.WithTimestamp(e.conv.ToWallClock(msg.Timestamp)))
	}
	return nil
}

// Flush closes any spans whose end event never arrived, marking them as
// errored at their original position in the trace.
func (e *SpanExporter) Flush() {
	for key, spans := range e.open {
		for _, span := range spans {
			log.WithField("operation", key).Warn("start event without matching end")
			span.SetStatus(codes.Error, "no matching end event")
			span.End()
		}
	}
	e.open = make(map[string][]trace.Span)
}

// operationName picks the most specific name the payload offers.
func operationName(msg *stream.Message) string {
	for _, field := range []string{"region_name", "kernel_name", "copy_name", "allocation_name"} {
		if name, ok := msg.Fields[field].(string); ok && name != "" {
			return name
		}
	}
	eventType, _ := msg.Fields["event_type"].(string)
	eventType = strings.TrimSuffix(eventType, "_start")
	eventType = strings.TrimSuffix(eventType, "_end")
	if eventType != "" {
		return eventType
	}
	return "unknown"
}

// fieldAttributes converts shaped payload fields to span attributes in
// deterministic order.
func fieldAttributes(msg *stream.Message) []attribute.KeyValue {
	keys := make([]string, 0, len(msg.Fields))
	for k := range msg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys)+1)
	attrs = append(attrs, attribute.String("rocpd.channel", msg.Channel))
	for _, k := range keys {
		switch v := msg.Fields[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(k, v))
		case int64:
			attrs = append(attrs, attribute.Int64(k, v))
		}
	}
	return attrs
}
