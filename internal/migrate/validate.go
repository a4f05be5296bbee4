package migrate

import (
	"fmt"
	"slices"

	"github.com/iudanet/opsync/internal/models"
)

// Validate checks that doc has the current shape. It returns
// *DataValidationFailedError listing every problem found.
func Validate(doc Document) error {
	var issues []string
	addf := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if IsLegacy(doc) {
		addf("legacy key %s is still present", keyTaskArchive)
	}

	for _, t := range models.CollectionTypes() {
		validateEntityState(doc, t.StateKey(), t.StateKey(), addf)
	}
	for _, t := range models.SingletonTypes() {
		if _, ok := asObject(doc[t.StateKey()]); !ok {
			addf("%s: missing or not an object", t.StateKey())
		}
	}
	for _, key := range []string{keyArchiveYoung, keyArchiveOld} {
		archive, ok := asObject(doc[key])
		if !ok {
			addf("%s: missing or not an object", key)
			continue
		}
		validateEntityState(archive, "task", key+".task", addf)
	}

	if tasks, ok := lookupEntityState(doc, "task"); ok {
		projects, _ := lookupEntityState(doc, "project")
		tasks.each(func(id string, task map[string]any) {
			project, _ := asString(task["projectId"])
			if project == "" {
				return
			}
			if projects == nil || !projects.has(project) {
				addf("task %s: unknown project %s", id, project)
			}
		})
	}

	if len(issues) > 0 {
		return &DataValidationFailedError{Issues: issues}
	}
	return nil
}

func validateEntityState(parent map[string]any, key, label string, addf func(string, ...any)) {
	es, ok := lookupEntityState(parent, key)
	if !ok {
		addf("%s: not an entity state", label)
		return
	}

	seen := make(map[string]struct{}, len(es.ids))
	for _, id := range es.ids {
		if _, dup := seen[id]; dup {
			addf("%s: duplicate id %s", label, id)
			continue
		}
		seen[id] = struct{}{}

		entity, ok := asObject(es.entities[id])
		if !ok {
			addf("%s: id %s has no entity", label, id)
			continue
		}
		if own, ok := asString(entity["id"]); ok && own != id {
			addf("%s: entity %s carries id %s", label, id, own)
		}
	}
	if len(es.entities) != len(seen) {
		addf("%s: %d entities for %d ids", label, len(es.entities), len(seen))
	}
}

// repair приводит словари сущностей к согласованному виду и отвязывает
// задачи от несуществующих проектов. После него пайплайн запускается заново.
func repair(doc Document) {
	for _, t := range models.CollectionTypes() {
		repairEntityState(doc, t.StateKey())
	}
	for _, key := range []string{keyArchiveYoung, keyArchiveOld} {
		if archive, ok := asObject(doc[key]); ok {
			repairEntityState(archive, "task")
		}
	}

	tasks, ok := lookupEntityState(doc, "task")
	if !ok {
		return
	}
	projects, _ := lookupEntityState(doc, "project")
	tasks.each(func(_ string, task map[string]any) {
		project, _ := asString(task["projectId"])
		if project != "" && (projects == nil || !projects.has(project)) {
			delete(task, "projectId")
		}
	})
}

func repairEntityState(parent map[string]any, key string) {
	node, ok := asObject(parent[key])
	if !ok {
		delete(parent, key)
		return
	}
	entities, ok := asObject(node["entities"])
	if !ok {
		entities = map[string]any{}
	}
	rawIDs, _ := node["ids"].([]any)

	ids := make([]any, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	keep := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		entity, ok := asObject(entities[id])
		if !ok {
			return
		}
		seen[id] = struct{}{}
		entity["id"] = id
		ids = append(ids, id)
	}

	for _, v := range rawIDs {
		id, ok := asString(v)
		if !ok {
			id = stringify(v)
		}
		keep(id)
	}
	rest := make([]string, 0)
	for id := range entities {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		keep(id)
	}

	for id := range entities {
		if _, ok := seen[id]; !ok {
			delete(entities, id)
		}
	}

	parent[key] = map[string]any{"ids": ids, "entities": entities}
}
