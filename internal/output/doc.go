// Package output consumes the framed message stream.
//
// Two consumers are provided: TextWriter renders messages as human
// readable lines, and SpanExporter pairs start/end events back into
// OpenTelemetry spans. Both are pure sinks driven one message at a time
// through the MessageHandler interface; neither reaches back into the
// source or the multiplexer.
package output
