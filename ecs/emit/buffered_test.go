package emit

import (
	"context"
	"testing"
)

func TestBufferedEmitterHistory(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{WorldID: "w1", Frame: 1, Msg: "frame_start"})
	emitter.Emit(Event{WorldID: "w1", Frame: 1, System: "A", Msg: "system_end"})
	emitter.Emit(Event{WorldID: "w2", Frame: 1, Msg: "frame_start"})

	if got := emitter.GetHistory("w1"); len(got) != 2 {
		t.Errorf("w1 history length = %d, want 2", len(got))
	}
	if got := emitter.GetHistory("w2"); len(got) != 1 {
		t.Errorf("w2 history length = %d, want 1", len(got))
	}
	if got := emitter.GetHistory("unknown"); len(got) != 0 {
		t.Errorf("unknown history length = %d, want 0", len(got))
	}
}

func TestBufferedEmitterFilter(t *testing.T) {
	emitter := NewBufferedEmitter()
	for frame := 1; frame <= 3; frame++ {
		emitter.Emit(Event{WorldID: "w", Frame: frame, Msg: "frame_start"})
		emitter.Emit(Event{WorldID: "w", Frame: frame, System: "A", Msg: "system_end"})
		emitter.Emit(Event{WorldID: "w", Frame: frame, Msg: "frame_end"})
	}

	if got := emitter.GetHistoryWithFilter("w", HistoryFilter{Msg: "system_end"}); len(got) != 3 {
		t.Errorf("system_end count = %d, want 3", len(got))
	}
	if got := emitter.GetHistoryWithFilter("w", HistoryFilter{System: "A"}); len(got) != 3 {
		t.Errorf("system A count = %d, want 3", len(got))
	}

	min, max := 2, 2
	got := emitter.GetHistoryWithFilter("w", HistoryFilter{MinFrame: &min, MaxFrame: &max})
	if len(got) != 3 {
		t.Errorf("frame 2 count = %d, want 3", len(got))
	}
	for _, e := range got {
		if e.Frame != 2 {
			t.Errorf("event frame = %d, want 2", e.Frame)
		}
	}

	if got := emitter.GetHistoryWithFilter("w", HistoryFilter{}); len(got) != 9 {
		t.Errorf("unfiltered count = %d, want 9", len(got))
	}
}

func TestBufferedEmitterClear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{WorldID: "w1", Msg: "frame_start"})
	emitter.Emit(Event{WorldID: "w2", Msg: "frame_start"})

	emitter.Clear("w1")
	if len(emitter.GetHistory("w1")) != 0 {
		t.Error("Clear(w1) left events behind")
	}
	if len(emitter.GetHistory("w2")) != 1 {
		t.Error("Clear(w1) removed w2 events")
	}

	emitter.Clear("")
	if len(emitter.GetHistory("w2")) != 0 {
		t.Error("Clear(\"\") left events behind")
	}
}

func TestBufferedEmitterBatch(t *testing.T) {
	emitter := NewBufferedEmitter()
	err := emitter.EmitBatch(context.Background(), []Event{
		{WorldID: "w", Frame: 1, Msg: "frame_start"},
		{WorldID: "w", Frame: 1, Msg: "frame_end"},
	})
	if err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if got := emitter.GetHistory("w"); len(got) != 2 {
		t.Errorf("history length = %d, want 2", len(got))
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v", err)
	}
}
