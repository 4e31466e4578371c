package stream

import "io"

// MessageKind discriminates the three message types a Multiplexer emits.
type MessageKind int

const (
	// KindChannelBegin opens a channel. Emitted exactly once before the
	// first event of each contiguous run of events sharing a channel key.
	KindChannelBegin MessageKind = iota
	// KindEvent carries one shaped event.
	KindEvent
	// KindChannelEnd closes the channel that is open when the event list
	// is exhausted.
	KindChannelEnd
)

// String returns the wire name of the message kind.
func (k MessageKind) String() string {
	switch k {
	case KindChannelBegin:
		return "channel_begin"
	case KindEvent:
		return "event"
	case KindChannelEnd:
		return "channel_end"
	default:
		return "unknown"
	}
}

// Message is one element of the output sequence. Framing messages carry
// only the channel key; event messages additionally carry the raw
// timestamp, the selected schema and the shaped payload.
type Message struct {
	Kind      MessageKind
	Channel   string
	Timestamp int64
	Schema    string
	Fields    map[string]any
}

// channelInfo is the per-channel state created lazily on first use.
type channelInfo struct {
	category string
	tid      *int64
	queueID  *int64
	streamID *int64
}

type muxState int

const (
	stateInitial muxState = iota
	stateEvents
	stateEnd
	stateDone
)

// Multiplexer walks a timestamp-sorted event list and emits the framed
// message sequence one message per Next call. Exactly one channel is open
// at a time; when consecutive events in global order belong to different
// channels the current channel is left behind and a fresh channel-begin
// is emitted for the new one. A key that reappears later in the global
// order is reopened with another channel-begin: channels are
// contiguous-run frames, not exclusive per-key streams.
type Multiplexer struct {
	events   []Event
	cursor   int
	state    muxState
	current  string
	channels map[string]*channelInfo

	// shape is swappable so the skip path for unresolvable schemas stays
	// testable; the default resolver is total.
	shape func(Event) (string, map[string]any, bool)
}

// NewMultiplexer creates a multiplexer over an event list that must
// already be sorted ascending by timestamp. The loader owns that sort;
// the multiplexer never reorders.
func NewMultiplexer(events []Event) *Multiplexer {
	return &Multiplexer{
		events:   events,
		channels: make(map[string]*channelInfo),
		shape: func(ev Event) (string, map[string]any, bool) {
			name, fields := Shape(ev)
			if _, ok := LookupSchema(name); !ok {
				return "", nil, false
			}
			return name, fields, true
		},
	}
}

// Next returns the next message in the sequence, or io.EOF when the
// stream is exhausted. The cursor only ever advances; events whose
// schema cannot be resolved at all are skipped in place rather than
// terminating the stream.
func (m *Multiplexer) Next() (*Message, error) {
	for {
		switch m.state {
		case stateInitial:
			if len(m.events) == 0 {
				m.state = stateDone
				return nil, io.EOF
			}
			m.current = m.openChannel(m.events[0])
			m.state = stateEvents
			return &Message{Kind: KindChannelBegin, Channel: m.current}, nil

		case stateEvents:
			if m.cursor >= len(m.events) {
				m.state = stateEnd
				continue
			}
			ev := m.events[m.cursor]
			key := ChannelKey(ev)
			if key != m.current {
				// Do not consume the event; it is emitted on the next
				// call, after its channel has been opened.
				m.current = m.openChannel(ev)
				return &Message{Kind: KindChannelBegin, Channel: key}, nil
			}

			m.cursor++
			schema, fields, ok := m.shape(ev)
			if !ok {
				continue
			}
			return &Message{
				Kind:      KindEvent,
				Channel:   key,
				Timestamp: ev.Timestamp,
				Schema:    schema,
				Fields:    fields,
			}, nil

		case stateEnd:
			m.state = stateDone
			if m.current != "" {
				channel := m.current
				m.current = ""
				return &Message{Kind: KindChannelEnd, Channel: channel}, nil
			}
			return nil, io.EOF

		default:
			return nil, io.EOF
		}
	}
}

// openChannel records per-channel state on first use and returns the key.
func (m *Multiplexer) openChannel(ev Event) string {
	key := ChannelKey(ev)
	if _, ok := m.channels[key]; !ok {
		m.channels[key] = &channelInfo{
			category: ev.Category,
			tid:      ev.TID,
			queueID:  ev.QueueID,
			streamID: ev.StreamID,
		}
	}
	return key
}
