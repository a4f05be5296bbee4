// Package migrate приводит резервные копии старых версий схемы к текущей.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

const (
	keyTaskArchive  = "taskArchive"
	keyArchiveYoung = "archiveYoung"
	keyArchiveOld   = "archiveOld"
)

// Document резервная копия в виде дерева JSON. Шаги миграции проверяют
// форму каждого узла перед изменением.
type Document map[string]any

// Parse decodes a raw backup. Numbers are kept as json.Number.
func Parse(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to parse backup: top level is not an object")
	}
	return doc, nil
}

// IsLegacy reports whether the document uses the flat task archive of the
// old schema.
func IsLegacy(doc Document) bool {
	_, ok := doc[keyTaskArchive]
	return ok
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Document:
		return t, true
	default:
		return nil, false
	}
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// entityState узел вида {ids: [...], entities: {...}}.
type entityState struct {
	node     map[string]any
	entities map[string]any
	ids      []string
}

// lookupEntityState returns the entity state stored under key, or false if
// the node is missing or has another shape.
func lookupEntityState(parent map[string]any, key string) (*entityState, bool) {
	node, ok := asObject(parent[key])
	if !ok {
		return nil, false
	}
	entities, ok := asObject(node["entities"])
	if !ok {
		return nil, false
	}
	rawIDs, ok := node["ids"].([]any)
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(rawIDs))
	for _, v := range rawIDs {
		id, ok := asString(v)
		if !ok {
			id = stringify(v)
		}
		ids = append(ids, id)
	}
	return &entityState{node: node, entities: entities, ids: ids}, true
}

// each calls fn for every entity that is an object, in ids order.
func (s *entityState) each(fn func(id string, entity map[string]any)) {
	for _, id := range s.ids {
		if entity, ok := asObject(s.entities[id]); ok {
			fn(id, entity)
		}
	}
}

func (s *entityState) has(id string) bool {
	_, ok := s.entities[id]
	return ok
}

func (s *entityState) add(id string, entity map[string]any) {
	if !slices.Contains(s.ids, id) {
		s.ids = append(s.ids, id)
		s.node["ids"] = append(s.node["ids"].([]any), id)
	}
	s.entities[id] = entity
}

func newEntityStateNode() map[string]any {
	return map[string]any{"ids": []any{}, "entities": map[string]any{}}
}

func stringify(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
