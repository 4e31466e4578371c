// Package timesync anchors the trace's monotonic nanosecond clock to
// wall-clock time.
//
// rocpd timestamps are monotonic clock values with an arbitrary origin.
// Exported spans need absolute times, so a Converter pins one trace
// timestamp (normally the earliest) to a chosen wall-clock instant and
// converts the rest by offset.
package timesync
