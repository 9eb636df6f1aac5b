package storage

import (
	"testing"

	"metis/internal/model"
)

func TestEncodeRunStampsVersions(t *testing.T) {
	payload, err := EncodeRun(model.RunRecord{ID: "run-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	run, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.SchemaVersion != CurrentSchemaVersion || run.CodecVersion != CurrentCodecVersion {
		t.Fatalf("versions not stamped: %+v", run.VersionedRecord)
	}
}

func TestDecodeRunRejectsNewerCodec(t *testing.T) {
	payload, err := EncodeRun(model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: CurrentCodecVersion + 1},
		ID:              "run-1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(payload); err == nil {
		t.Fatal("expected error for newer codec version")
	}
}

func TestBestSolutionRoundTrip(t *testing.T) {
	payload, err := EncodeBestSolution(model.BestSolution{RunID: "run-1", Fitness: 2.5, Position: []float64{1, 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	best, err := DecodeBestSolution(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if best.RunID != "run-1" || best.Fitness != 2.5 || len(best.Position) != 2 {
		t.Fatalf("unexpected best: %+v", best)
	}
}

func TestFactoryDispatch(t *testing.T) {
	store, err := NewStore("", "")
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if _, err := NewStore("bogus", ""); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
