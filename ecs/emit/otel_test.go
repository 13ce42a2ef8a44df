package emit

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingEmitter() (*OTelEmitter, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewOTelEmitter(provider.Tracer("worldline-go-test")), recorder
}

func TestOTelEmitterSpans(t *testing.T) {
	emitter, recorder := newRecordingEmitter()

	emitter.Emit(Event{
		WorldID: "w-001",
		Frame:   2,
		System:  "MoveSystem",
		Msg:     "system_end",
		Meta:    map[string]interface{}{"duration_ms": int64(3)},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "system_end" {
		t.Errorf("span name = %q, want system_end", span.Name())
	}

	attrs := map[string]interface{}{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["worldline.world_id"] != "w-001" {
		t.Errorf("world_id attribute = %v", attrs["worldline.world_id"])
	}
	if attrs["worldline.system"] != "MoveSystem" {
		t.Errorf("system attribute = %v", attrs["worldline.system"])
	}
	if attrs["worldline.frame"] != int64(2) {
		t.Errorf("frame attribute = %v", attrs["worldline.frame"])
	}
	if attrs["worldline.duration_ms"] != int64(3) {
		t.Errorf("duration_ms attribute = %v", attrs["worldline.duration_ms"])
	}
}

func TestOTelEmitterErrorStatus(t *testing.T) {
	emitter, recorder := newRecordingEmitter()

	emitter.Emit(Event{
		WorldID: "w-001",
		Frame:   1,
		System:  "BrokenSystem",
		Msg:     "system_error",
		Meta:    map[string]interface{}{"error": "boom"},
	})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status().Description != "boom" {
		t.Errorf("status = %+v, want description boom", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("no recorded error event on span")
	}
}

func TestOTelEmitterBatch(t *testing.T) {
	emitter, recorder := newRecordingEmitter()

	events := []Event{
		{WorldID: "w", Frame: 1, Msg: "frame_start"},
		{WorldID: "w", Frame: 1, Msg: "frame_end"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if got := len(recorder.Ended()); got != 2 {
		t.Errorf("recorded %d spans, want 2", got)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v", err)
	}
}
