// Package seed loads a canonical collection snapshot used to initialize the
// engine at startup.
package seed

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/logger"
)

// Snapshot is the full canonical dataset.
type Snapshot struct {
	Tastings    []model.TastingRecord
	Experiences []model.ExperienceRecord
}

// snapshotFile is the on-disk layout. Records decode through the wire
// payloads so a missing number is rejected instead of read as zero.
type snapshotFile struct {
	Tastings    []types.TastingPayload    `koanf:"tastings"`
	Experiences []types.ExperiencePayload `koanf:"experiences"`
}

// Load reads a YAML or JSON snapshot from path. JSON is parsed as YAML.
func Load(ctx context.Context, path string) (Snapshot, error) {
	if path == "" {
		return Snapshot{}, ErrEmptyPath
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrLoadSeed, path, err)
	}

	var raw snapshotFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrLoadSeed, path, err)
	}
	snap := Snapshot{
		Tastings:    types.TastingRecords(raw.Tastings),
		Experiences: types.ExperienceRecords(raw.Experiences),
	}

	logger.Get().Info(ctx, "seed snapshot loaded",
		logger.String("path", path),
		logger.Int("tastings", len(snap.Tastings)),
		logger.Int("experiences", len(snap.Experiences)),
	)
	return snap, nil
}
