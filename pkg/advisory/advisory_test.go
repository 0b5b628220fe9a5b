package advisory

import (
	"sync"
	"testing"

	"github.com/teslashibe/go-roadsense/pkg/perception"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		sig  perception.FrameSignals
		want Action
		text string
	}{
		{"idle", perception.FrameSignals{}, ActionProceedSlowly, "proceed slowly"},
		{"green", perception.FrameSignals{GreenLight: true}, ActionProceedSlowly, "proceed slowly"},
		{"hazard", perception.FrameSignals{StopDetected: true}, ActionStop, "stop"},
		{"red light", perception.FrameSignals{RedOrYellowLight: true}, ActionStop, "stop"},
		{"hazard beats green", perception.FrameSignals{StopDetected: true, GreenLight: true}, ActionStop, "stop"},
		{"red beats green", perception.FrameSignals{RedOrYellowLight: true, GreenLight: true}, ActionStop, "stop"},
		{"everything", perception.FrameSignals{StopDetected: true, RedOrYellowLight: true, GreenLight: true}, ActionStop, "stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.sig, EnglishPhrases)
			if got.Action != tt.want || got.Text != tt.text {
				t.Errorf("Decide() = %+v, want %v %q", got, tt.want, tt.text)
			}
		})
	}
}

func TestDecideStopAlwaysWins(t *testing.T) {
	for _, green := range []bool{false, true} {
		for _, redYellow := range []bool{false, true} {
			sig := perception.FrameSignals{StopDetected: true, GreenLight: green, RedOrYellowLight: redYellow}
			if got := Decide(sig, EnglishPhrases); got.Action != ActionStop {
				t.Errorf("Decide(%+v) = %v, want STOP", sig, got.Action)
			}
		}
	}
}

func TestDecideKoreanPhrases(t *testing.T) {
	if got := Decide(perception.FrameSignals{StopDetected: true}, KoreanPhrases); got.Text != "정지하십시오" {
		t.Errorf("stop text = %q", got.Text)
	}
	if got := Decide(perception.FrameSignals{}, KoreanPhrases); got.Text != "서행하십시오" {
		t.Errorf("proceed text = %q", got.Text)
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		a    Action
		want string
	}{
		{ActionUnset, "UNSET"},
		{ActionStop, "STOP"},
		{ActionProceedSlowly, "PROCEED_SLOWLY"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.a, got, tt.want)
		}
	}
	if EnglishPhrases.Text(ActionUnset) != "" {
		t.Error("unset action should have no text")
	}
}

func TestDebouncerFirstDecisionNotifies(t *testing.T) {
	d := NewDebouncer("")
	if d.Last() != ActionUnset {
		t.Fatalf("initial Last() = %v", d.Last())
	}

	ev, ok := d.MaybeNotify(Decide(perception.FrameSignals{}, EnglishPhrases))
	if !ok {
		t.Fatal("first decision should notify")
	}
	if ev.Lang != "ko-KR" || ev.Text != "proceed slowly" || ev.Action != ActionProceedSlowly {
		t.Errorf("event = %+v", ev)
	}
	if ev.ID == "" || ev.At.IsZero() {
		t.Errorf("event missing id or time: %+v", ev)
	}
}

func TestDebouncerIdempotent(t *testing.T) {
	d := NewDebouncer("")
	stop := State{Action: ActionStop, Text: "stop"}

	if _, ok := d.MaybeNotify(stop); !ok {
		t.Fatal("first STOP should notify")
	}
	if _, ok := d.MaybeNotify(stop); ok {
		t.Error("repeated STOP should not notify")
	}
	if _, ok := d.MaybeNotify(stop); ok {
		t.Error("third STOP should not notify")
	}
}

func TestDebouncerAlternating(t *testing.T) {
	d := NewDebouncer("en-US")
	seq := []Action{ActionStop, ActionProceedSlowly, ActionStop}

	var events []Event
	for _, a := range seq {
		if ev, ok := d.MaybeNotify(State{Action: a, Text: EnglishPhrases.Text(a)}); ok {
			events = append(events, ev)
		}
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Action != seq[i] || ev.Lang != "en-US" {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
	if events[0].ID == events[2].ID {
		t.Error("event ids should be unique")
	}
}

func TestDebouncerReset(t *testing.T) {
	d := NewDebouncer("")
	s := State{Action: ActionStop, Text: "stop"}
	d.MaybeNotify(s)
	d.Reset()
	if _, ok := d.MaybeNotify(s); !ok {
		t.Error("decision after Reset should notify")
	}
}

func TestDebouncerIndependentInstances(t *testing.T) {
	a, b := NewDebouncer(""), NewDebouncer("")
	s := State{Action: ActionStop, Text: "stop"}

	a.MaybeNotify(s)
	if _, ok := b.MaybeNotify(s); !ok {
		t.Error("debouncers should not share state")
	}
}

func TestDebouncerConcurrent(t *testing.T) {
	d := NewDebouncer("")
	s := State{Action: ActionStop, Text: "stop"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := d.MaybeNotify(s); ok {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count != 1 {
		t.Errorf("concurrent identical decisions emitted %d events, want 1", count)
	}
}
