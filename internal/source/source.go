// Package source is the consumer-facing surface of the converter. A
// Source validates its configuration eagerly, performs the single bulk
// load at construction, and then hands out messages one at a time until
// end of stream.
package source

import (
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ammarwa/rocpd-stream/internal/filter"
	"github.com/ammarwa/rocpd-stream/internal/rocpd"
	"github.com/ammarwa/rocpd-stream/internal/stream"
)

// ErrNoDatabasePath is returned when the required database path
// parameter is missing or empty.
var ErrNoDatabasePath = errors.New("database path parameter is required")

// Config enumerates the construction parameters of a Source.
type Config struct {
	// DBPath locates the rocpd database. Required.
	DBPath string
	// Filter optionally drops loaded events before multiplexing. Framing
	// stays consistent because filtering happens on the event list, not
	// on emitted messages.
	Filter *filter.Filter
}

// Source produces the framed message sequence for one rocpd database.
// It is single-threaded and pull-based; all state lives in the embedded
// multiplexer.
type Source struct {
	db  *rocpd.DB
	mux *stream.Multiplexer

	datasetID string
	loaded    int

	closeOnce sync.Once
	closeErr  error
}

// New validates the configuration, opens the database and loads all
// events. Configuration problems surface here, before any message is
// produced: an empty path is a configuration error and a missing file a
// not-found error (matching os.ErrNotExist).
func New(cfg Config) (*Source, error) {
	if cfg.DBPath == "" {
		return nil, ErrNoDatabasePath
	}

	db, err := rocpd.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	events := db.LoadEvents()
	if cfg.Filter != nil {
		events = cfg.Filter.Apply(events)
	}

	log.WithFields(log.Fields{
		"db":     cfg.DBPath,
		"events": len(events),
	}).Info("trace source ready")

	return &Source{
		db:        db,
		mux:       stream.NewMultiplexer(events),
		datasetID: db.DatasetID(),
		loaded:    len(events),
	}, nil
}

// Next returns the next message, or io.EOF once the stream is exhausted.
func (s *Source) Next() (*stream.Message, error) {
	return s.mux.Next()
}

// EventCount reports how many events survived loading and filtering.
func (s *Source) EventCount() int {
	return s.loaded
}

// DatasetID identifies the dataset this source reads.
func (s *Source) DatasetID() string {
	return s.datasetID
}

// Close releases the database connection. Safe to call whether or not
// iteration ran to completion, and safe to call more than once.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// SupportWeight reports how confidently this source can handle the given
// input: 1.0 for readable rocpd databases, 0.0 otherwise.
func SupportWeight(input any) float64 {
	return rocpd.SupportWeight(input)
}

// ProtocolVersion reports the supported message-protocol version.
func ProtocolVersion() int {
	return rocpd.ProtocolVersion
}

// Drain pulls every remaining message and passes it to fn, stopping on
// the first error. It exists for consumers that want the whole stream
// rather than single-step pulls.
func (s *Source) Drain(fn func(*stream.Message) error) error {
	for {
		msg, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pulling next message: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
