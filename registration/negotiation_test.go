package registration

import (
	"errors"
	"testing"
	"time"
)

func TestLog_AppendKeepsOrderAndDoesNotMutate(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base := Log{
		{Content: "first", ActorID: "e1", ActorName: "Lan", At: at, Kind: KindRemark},
	}

	grown := base.Append(Entry{Content: "second", ActorID: "e2", ActorName: "Minh", At: at.Add(time.Minute), Kind: KindRemark})

	if len(base) != 1 {
		t.Fatalf("append mutated the original log: %d entries", len(base))
	}
	if len(grown) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(grown))
	}
	if grown[0].Content != "first" || grown[1].Content != "second" {
		t.Fatalf("insertion order not preserved: %+v", grown)
	}
}

func TestLog_Delete(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	log := Log{
		{Content: "a", ActorID: "e1", ActorName: "Lan", At: at},
		{Content: "b", ActorID: "e1", ActorName: "Lan", At: at.Add(time.Minute)},
		{Content: "c", ActorID: "e1", ActorName: "Lan", At: at.Add(2 * time.Minute)},
	}

	out, err := log.Delete(1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(out) != 2 || out[0].Content != "a" || out[1].Content != "c" {
		t.Fatalf("unexpected log after delete: %+v", out)
	}
	if len(log) != 3 {
		t.Fatalf("delete mutated the original log")
	}

	for _, index := range []int{-1, 3} {
		_, err := log.Delete(index)
		if !errors.Is(err, ErrEntryIndex) {
			t.Fatalf("index %d: expected ErrEntryIndex, got %v", index, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("index %d: ErrEntryIndex must wrap ErrValidation", index)
		}
	}
}

func TestMarshalLog_NilStoresAsEmptyArray(t *testing.T) {
	data, err := MarshalLog(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

func TestParseLog_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	log := Log{
		{Content: "[manager decision: approve]: looks good", ActorID: "e1", ActorName: "Lan", At: at, Kind: KindManagerDecision},
		{Content: "free remark", ActorID: "e2", ActorName: "Minh", At: at.Add(time.Minute), Kind: KindRemark},
	}

	data, err := MarshalLog(log)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseLog(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].Kind != KindManagerDecision || parsed[1].ActorName != "Minh" {
		t.Fatalf("round trip lost fields: %+v", parsed)
	}
	if !parsed[0].At.Equal(at) {
		t.Fatalf("timestamp mismatch: %v", parsed[0].At)
	}
}

func TestParseLog_RejectsUnattributedEntries(t *testing.T) {
	cases := map[string]string{
		"missing actor":     `[{"content":"x","actor_id":"","actor_name":"Lan","at":"2026-03-01T09:00:00Z"}]`,
		"missing name":      `[{"content":"x","actor_id":"e1","actor_name":"  ","at":"2026-03-01T09:00:00Z"}]`,
		"missing timestamp": `[{"content":"x","actor_id":"e1","actor_name":"Lan"}]`,
		"not an array":      `{"content":"x"}`,
	}
	for name, raw := range cases {
		if _, err := ParseLog([]byte(raw)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestDecisionContentPrefixes(t *testing.T) {
	if got := managerDecisionContent(DecisionApprove, "ok"); got != "[manager decision: approve]: ok" {
		t.Fatalf("unexpected manager content: %q", got)
	}
	if got := seniorDecisionContent(DecisionReject, "no", false); got != "[senior decision: reject]: no" {
		t.Fatalf("unexpected senior content: %q", got)
	}
	if got := seniorDecisionContent(DecisionApprove, "go", true); got != "[senior decision: approve (override)]: go" {
		t.Fatalf("unexpected override content: %q", got)
	}
	if got := returnedContent("redo"); got != "[returned]: redo" {
		t.Fatalf("unexpected returned content: %q", got)
	}
	if got := cancelledContent("mistake"); got != "[cancelled]: mistake" {
		t.Fatalf("unexpected cancelled content: %q", got)
	}
}
