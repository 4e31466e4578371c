// Package stream turns the flat event list loaded from a rocpd database
// into a channel-framed, globally time-ordered message sequence.
//
// Events are partitioned into channels keyed by their execution context
// (thread, queue or stream). The Multiplexer walks the time-sorted event
// list with a single cursor and emits channel-begin, event and channel-end
// messages one at a time. Payload shaping is handled by a closed set of
// per-category schemas; unrecognized categories degrade to a generic
// schema instead of failing.
package stream
