package storage

import (
	"encoding/json"
	"errors"

	"grasprl/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrNotInitialized  = errors.New("store is not initialized")
	ErrMissingKey      = errors.New("record key is required")
)

// CurrentVersion is the version stamp new records should carry.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeEpisode(e model.EpisodeSummary) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEpisode(data []byte) (model.EpisodeSummary, error) {
	var episode model.EpisodeSummary
	if err := json.Unmarshal(data, &episode); err != nil {
		return model.EpisodeSummary{}, err
	}
	if err := checkVersion(episode.VersionedRecord); err != nil {
		return model.EpisodeSummary{}, err
	}
	return episode, nil
}

func EncodeStepRewards(rewards []float64) ([]byte, error) {
	return json.Marshal(rewards)
}

func DecodeStepRewards(data []byte) ([]float64, error) {
	var rewards []float64
	if err := json.Unmarshal(data, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
