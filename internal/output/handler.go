package output

import (
	"fmt"

	"github.com/ammarwa/rocpd-stream/internal/stream"
)

// MessageHandler is the interface stream consumers implement.
type MessageHandler interface {
	HandleChannelBegin(channel string) error
	HandleEvent(msg *stream.Message) error
	HandleChannelEnd(channel string) error
}

// Dispatch routes one message to the matching handler method.
func Dispatch(h MessageHandler, msg *stream.Message) error {
	switch msg.Kind {
	case stream.KindChannelBegin:
		return h.HandleChannelBegin(msg.Channel)
	case stream.KindEvent:
		return h.HandleEvent(msg)
	case stream.KindChannelEnd:
		return h.HandleChannelEnd(msg.Channel)
	default:
		return fmt.Errorf("unknown message kind %d", msg.Kind)
	}
}
