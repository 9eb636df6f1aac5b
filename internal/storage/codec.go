package storage

import (
	"encoding/json"
	"fmt"

	"metis/internal/model"
)

// CurrentSchemaVersion and CurrentCodecVersion stamp freshly encoded records.
const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// EncodeRun serializes a run record, stamping current versions when unset.
func EncodeRun(run model.RunRecord) ([]byte, error) {
	if run.SchemaVersion == 0 {
		run.SchemaVersion = CurrentSchemaVersion
	}
	if run.CodecVersion == 0 {
		run.CodecVersion = CurrentCodecVersion
	}
	return json.Marshal(run)
}

// DecodeRun deserializes a run record, rejecting newer codecs.
func DecodeRun(payload []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(payload, &run); err != nil {
		return model.RunRecord{}, err
	}
	if run.CodecVersion > CurrentCodecVersion {
		return model.RunRecord{}, fmt.Errorf("unsupported codec version: %d", run.CodecVersion)
	}
	return run, nil
}

// EncodeBestSolution serializes a best-solution record.
func EncodeBestSolution(best model.BestSolution) ([]byte, error) {
	if best.SchemaVersion == 0 {
		best.SchemaVersion = CurrentSchemaVersion
	}
	if best.CodecVersion == 0 {
		best.CodecVersion = CurrentCodecVersion
	}
	return json.Marshal(best)
}

// DecodeBestSolution deserializes a best-solution record.
func DecodeBestSolution(payload []byte) (model.BestSolution, error) {
	var best model.BestSolution
	if err := json.Unmarshal(payload, &best); err != nil {
		return model.BestSolution{}, err
	}
	if best.CodecVersion > CurrentCodecVersion {
		return model.BestSolution{}, fmt.Errorf("unsupported codec version: %d", best.CodecVersion)
	}
	return best, nil
}

// EncodeHistory serializes a fitness history.
func EncodeHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

// DecodeHistory deserializes a fitness history.
func DecodeHistory(payload []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, err
	}
	return history, nil
}
