package registration

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntryKind categorizes a negotiation entry for reporting. It never affects
// workflow behavior.
type EntryKind string

const (
	KindRemark          EntryKind = "remark"
	KindManagerDecision EntryKind = "manager_decision"
	KindSeniorDecision  EntryKind = "senior_decision"
	KindReturned        EntryKind = "returned"
	KindCancelled       EntryKind = "cancelled"
)

// Entry is one line of the negotiation trail. Every entry has an attributable
// actor; system-generated entries are written under the acting employee.
type Entry struct {
	Content   string    `json:"content"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	At        time.Time `json:"at"`
	Kind      EntryKind `json:"kind,omitempty"`
}

// Log is the ordered negotiation trail of a registration. Order is insertion
// order; entries are append-only except for moderated single-entry deletion.
type Log []Entry

// Append returns a new log with the entry added at the end.
func (l Log) Append(e Entry) Log {
	out := make(Log, 0, len(l)+1)
	out = append(out, l...)
	return append(out, e)
}

// Delete returns a new log with the entry at index removed.
func (l Log) Delete(index int) (Log, error) {
	if index < 0 || index >= len(l) {
		return nil, fmt.Errorf("%w: index %d, log length %d", ErrEntryIndex, index, len(l))
	}
	out := make(Log, 0, len(l)-1)
	out = append(out, l[:index]...)
	return append(out, l[index+1:]...), nil
}

// MarshalLog serializes the log for jsonb storage. A nil log stores as [].
func MarshalLog(l Log) ([]byte, error) {
	if l == nil {
		l = Log{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("registration: marshal negotiation log: %w", err)
	}
	return data, nil
}

// ParseLog deserializes and validates a stored negotiation log. Entries
// without an attributable actor or timestamp are rejected at the store
// boundary rather than surfacing later as half-formed audit lines.
func ParseLog(data []byte) (Log, error) {
	if len(data) == 0 {
		return Log{}, nil
	}

	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("registration: parse negotiation log: %w", err)
	}
	for i, e := range l {
		if strings.TrimSpace(e.ActorID) == "" || strings.TrimSpace(e.ActorName) == "" {
			return nil, fmt.Errorf("registration: negotiation entry %d has no attributable actor", i)
		}
		if e.At.IsZero() {
			return nil, fmt.Errorf("registration: negotiation entry %d has no timestamp", i)
		}
	}
	return l, nil
}

// Bracketed action prefixes embedded in entry content, kept greppable for
// downstream parsing and search.
func managerDecisionContent(d Decision, reason string) string {
	return fmt.Sprintf("[manager decision: %s]: %s", d, reason)
}

func seniorDecisionContent(d Decision, reason string, override bool) string {
	if override {
		return fmt.Sprintf("[senior decision: %s (override)]: %s", d, reason)
	}
	return fmt.Sprintf("[senior decision: %s]: %s", d, reason)
}

func returnedContent(reason string) string {
	return fmt.Sprintf("[returned]: %s", reason)
}

func cancelledContent(reason string) string {
	return fmt.Sprintf("[cancelled]: %s", reason)
}
