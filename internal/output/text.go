package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ammarwa/rocpd-stream/internal/stream"
)

// TextWriter renders the message stream as one line per message.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a TextWriter emitting to w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// HandleChannelBegin prints a channel-begin marker.
func (t *TextWriter) HandleChannelBegin(channel string) error {
	_, err := fmt.Fprintf(t.w, "[channel-begin] %s\n", channel)
	return err
}

// HandleEvent prints one event with its schema and shaped fields. Fields
// are sorted by name so output is deterministic.
func (t *TextWriter) HandleEvent(msg *stream.Message) error {
	keys := make([]string, 0, len(msg.Fields))
	for k := range msg.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, msg.Fields[k]))
	}

	_, err := fmt.Fprintf(t.w, "[event] %d %s %s\n",
		msg.Timestamp, msg.Schema, strings.Join(pairs, " "))
	return err
}

// HandleChannelEnd prints a channel-end marker.
func (t *TextWriter) HandleChannelEnd(channel string) error {
	_, err := fmt.Fprintf(t.w, "[channel-end] %s\n", channel)
	return err
}
