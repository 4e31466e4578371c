package stream

import "fmt"

// ChannelKey derives the channel an event belongs to. Thread identity is
// the most specific execution context and wins over queue and stream
// identity when more than one is present; events with no context at all
// land in a per-process default bucket. The key is salted with the
// category so two categories sharing a thread id still get separate
// channels.
//
// The function is total: it always returns a key.
func ChannelKey(ev Event) string {
	category := ev.Category
	if category == "" {
		category = "unknown"
	}

	switch {
	case ev.TID != nil:
		return fmt.Sprintf("%s_thread_%d", category, *ev.TID)
	case ev.QueueID != nil:
		return fmt.Sprintf("%s_queue_%d", category, *ev.QueueID)
	case ev.StreamID != nil:
		return fmt.Sprintf("%s_stream_%d", category, *ev.StreamID)
	default:
		var pid int64
		if ev.PID != nil {
			pid = *ev.PID
		}
		return fmt.Sprintf("%s_default_%d", category, pid)
	}
}
