package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/events"
)

// Capture kinds mirror the event types that are journaled.
const (
	KindUnhandled   = string(events.EventUnhandled)
	KindDecodeError = string(events.EventDecodeError)
	KindUnsupported = string(events.EventUnsupported)
)

// Capture is one message the client could not fully decode.
type Capture struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Opcode     int       `json:"opcode"`
	SubOpcode  int       `json:"sub_opcode"`
	Body       []byte    `json:"body"`
	Error      string    `json:"error,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Line rebuilds the message line as it arrived, without its terminator.
func (c Capture) Line() []byte {
	if c.Opcode < 0 {
		return append([]byte(nil), c.Body...)
	}
	line := []byte{byte(c.Opcode + 32)}
	if c.SubOpcode >= 0 {
		line = append(line, byte(c.SubOpcode+32))
	}
	return append(line, c.Body...)
}

// OpcodeCount is the number of captures for one opcode pair.
type OpcodeCount struct {
	Kind      string `json:"kind"`
	Opcode    int    `json:"opcode"`
	SubOpcode int    `json:"sub_opcode"`
	Count     int    `json:"count"`
}

// CaptureJournal records undecoded traffic for later analysis.
type CaptureJournal struct {
	db      *Database
	session func() string
}

// NewCaptureJournal opens the journal at dbPath. session reports the id of
// the current protocol session and may be nil.
func NewCaptureJournal(dbPath string, session func() string) (*CaptureJournal, error) {
	database, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	j := &CaptureJournal{db: database, session: session}
	if err := j.migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate capture database: %w", err)
	}
	return j, nil
}

func (j *CaptureJournal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS captures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL DEFAULT '',
			kind        TEXT NOT NULL,
			opcode      INTEGER NOT NULL,
			sub_opcode  INTEGER NOT NULL,
			body        BLOB NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			captured_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_captures_opcode ON captures(opcode, sub_opcode);
		CREATE INDEX IF NOT EXISTS idx_captures_session ON captures(session_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *CaptureJournal) Close() error {
	return j.db.Close()
}

// Record stores one capture. A zero CapturedAt is set to now.
func (j *CaptureJournal) Record(c Capture) error {
	if c.CapturedAt.IsZero() {
		c.CapturedAt = time.Now().UTC()
	}
	if c.Body == nil {
		c.Body = []byte{}
	}
	_, err := j.db.Exec(
		`INSERT INTO captures (session_id, kind, opcode, sub_opcode, body, error, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.Kind, c.Opcode, c.SubOpcode, c.Body, c.Error, c.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}
	return nil
}

// Recent returns up to limit captures, newest first.
func (j *CaptureJournal) Recent(limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(
		`SELECT id, session_id, kind, opcode, sub_opcode, body, error, captured_at
		 FROM captures ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Kind, &c.Opcode, &c.SubOpcode, &c.Body, &c.Error, &c.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountByOpcode groups captures by kind and opcode pair, most frequent first.
func (j *CaptureJournal) CountByOpcode() ([]OpcodeCount, error) {
	rows, err := j.db.Query(
		`SELECT kind, opcode, sub_opcode, COUNT(*) AS n
		 FROM captures GROUP BY kind, opcode, sub_opcode
		 ORDER BY n DESC, opcode, sub_opcode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpcodeCount
	for rows.Next() {
		var c OpcodeCount
		if err := rows.Scan(&c.Kind, &c.Opcode, &c.SubOpcode, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prune deletes captures recorded before cutoff and returns how many were
// removed.
func (j *CaptureJournal) Prune(cutoff time.Time) (int64, error) {
	res, err := j.db.Exec(`DELETE FROM captures WHERE captured_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune captures: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored captures.
func (j *CaptureJournal) Count() (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM captures`).Scan(&n)
	return n, err
}

// Attach journals every unhandled, undecodable and unsupported event.
func (j *CaptureJournal) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventUnhandled, "capture.unhandled", j.onEvent)
	bus.Subscribe(events.EventDecodeError, "capture.decode_error", j.onEvent)
	bus.Subscribe(events.EventUnsupported, "capture.unsupported", j.onEvent)
}

func (j *CaptureJournal) onEvent(_ context.Context, event events.Event) error {
	c := Capture{Kind: string(event.Type), Opcode: event.Opcode, SubOpcode: event.SubOpcode}
	if j.session != nil {
		c.SessionID = j.session()
	}

	switch p := event.Payload.(type) {
	case events.UnhandledPayload:
		c.Body = p.Body
	case events.UnsupportedPayload:
		c.Body = p.Body
	case events.DecodeErrorPayload:
		c.Body = p.Body
		c.Error = p.Message
	default:
		log.Warn().Str("event", string(event.Type)).Msg("capture skipped unexpected payload")
		return nil
	}
	return j.Record(c)
}
