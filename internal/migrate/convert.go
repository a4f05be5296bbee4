package migrate

import (
	"encoding/json"
	"fmt"

	"github.com/iudanet/opsync/internal/models"
)

// ToImport converts a migrated document into the state and archives that an
// import writes. doc must have passed Validate.
func ToImport(doc Document) (*models.AppState, *models.Archive, *models.Archive, error) {
	state := models.NewAppState()

	for _, t := range models.CollectionTypes() {
		es, ok := lookupEntityState(doc, t.StateKey())
		if !ok {
			continue
		}
		target := state.Collection(t)
		for _, id := range es.ids {
			raw, err := json.Marshal(es.entities[id])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("failed to encode %s %s: %w", t, id, err)
			}
			target.Upsert(id, raw)
		}
	}

	for _, t := range models.SingletonTypes() {
		v, ok := doc[t.StateKey()]
		if !ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode %s: %w", t, err)
		}
		state.Singletons[t] = raw
	}

	young, err := decodeArchive(doc[keyArchiveYoung])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode %s: %w", keyArchiveYoung, err)
	}
	old, err := decodeArchive(doc[keyArchiveOld])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode %s: %w", keyArchiveOld, err)
	}

	return state, young, old, nil
}

func decodeArchive(v any) (*models.Archive, error) {
	if v == nil {
		return models.NewArchive(), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var archive models.Archive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, err
	}
	if archive.Task == nil {
		archive.Task = models.NewEntityState()
	}
	if archive.Task.Entities == nil {
		archive.Task.Entities = map[string]json.RawMessage{}
	}
	if archive.Task.IDs == nil {
		archive.Task.IDs = []string{}
	}
	if archive.TimeTracking.Project == nil {
		archive.TimeTracking.Project = map[string]models.DayMap{}
	}
	if archive.TimeTracking.Tag == nil {
		archive.TimeTracking.Tag = map[string]models.DayMap{}
	}
	return &archive, nil
}

// Export renders state and archives in the backup shape that Parse and
// Migrate accept.
func Export(state *models.AppState, young, old *models.Archive) ([]byte, error) {
	doc := map[string]any{}
	for _, t := range models.CollectionTypes() {
		doc[t.StateKey()] = state.Collection(t)
	}
	for _, t := range models.SingletonTypes() {
		if v, ok := state.Singletons[t]; ok {
			doc[t.StateKey()] = v
		}
	}
	doc[keyArchiveYoung] = young
	doc[keyArchiveOld] = old

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}
