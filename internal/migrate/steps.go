package migrate

import (
	"slices"
	"time"

	"github.com/iudanet/opsync/internal/models"
)

// Step один независимый шаг миграции. Run reports whether it changed doc.
// Every step is idempotent and checks the shape of what it touches.
type Step struct {
	Run  func(doc Document) (bool, error)
	Name string
}

// Steps returns the pipeline in execution order.
func Steps() []Step {
	return []Step{
		{Name: "split-archive", Run: splitArchive},
		{Name: "normalize-planner", Run: normalizePlanner},
		{Name: "rename-date-fields", Run: renameDateFields},
		{Name: "backfill-repeat-cfg", Run: backfillRepeatCfg},
		{Name: "scaffold", Run: scaffold},
		{Name: "rename-localization", Run: renameLocalization},
		{Name: "prune-unknown", Run: pruneUnknown},
	}
}

var workFields = map[string]string{
	"workStart": "s",
	"workEnd":   "e",
	"breakNr":   "b",
	"breakTime": "bt",
}

// splitArchive переносит плоский taskArchive в archiveYoung.task и выносит
// учет времени из проектов и тегов в timeTracking.
func splitArchive(doc Document) (bool, error) {
	changed := false

	if _, ok := doc[keyTaskArchive]; ok {
		young, ok := asObject(doc[keyArchiveYoung])
		if !ok {
			young = newArchiveNode()
			doc[keyArchiveYoung] = young
		}
		if src, ok := lookupEntityState(doc, keyTaskArchive); ok {
			target, ok := lookupEntityState(young, "task")
			if !ok {
				young["task"] = newEntityStateNode()
				target, _ = lookupEntityState(young, "task")
			}
			src.each(func(id string, entity map[string]any) {
				if !target.has(id) {
					target.add(id, entity)
				}
			})
		}
		if _, ok := asObject(doc[keyArchiveOld]); !ok {
			doc[keyArchiveOld] = newArchiveNode()
		}
		delete(doc, keyTaskArchive)
		changed = true
	}

	tracking, ok := asObject(doc["timeTracking"])
	if !ok {
		tracking = map[string]any{}
	}
	moved := false
	for _, key := range []string{"project", "tag"} {
		es, ok := lookupEntityState(doc, key)
		if !ok {
			continue
		}
		target, ok := asObject(tracking[key])
		if !ok {
			target = map[string]any{}
		}
		extracted := false
		es.each(func(id string, entity map[string]any) {
			if extractWork(id, entity, target) {
				extracted = true
			}
		})
		if extracted {
			tracking[key] = target
			moved = true
		}
	}
	if moved {
		doc["timeTracking"] = tracking
		changed = true
	}

	return changed, nil
}

// extractWork перемещает поля workStart/workEnd/breakNr/breakTime сущности
// в target[id][day].
func extractWork(id string, entity map[string]any, target map[string]any) bool {
	moved := false
	for field, short := range workFields {
		v, ok := entity[field]
		if !ok {
			continue
		}
		delete(entity, field)
		moved = true

		byDay, ok := asObject(v)
		if !ok {
			continue
		}
		days, ok := asObject(target[id])
		if !ok {
			days = map[string]any{}
			target[id] = days
		}
		for day, value := range byDay {
			n, ok := asInt(value)
			if !ok {
				continue
			}
			data, ok := asObject(days[day])
			if !ok {
				data = map[string]any{}
				days[day] = data
			}
			if _, exists := data[short]; !exists {
				data[short] = n
			}
		}
	}
	return moved
}

// normalizePlanner гарантирует наличие INBOX_PROJECT, переносит задачи без
// проекта во входящие и проставляет dueDay по дням планировщика.
func normalizePlanner(doc Document) (bool, error) {
	changed := false

	projects, ok := lookupEntityState(doc, "project")
	if !ok {
		return false, nil
	}
	if !projects.has(models.InboxProjectID) {
		projects.add(models.InboxProjectID, map[string]any{
			"id":      models.InboxProjectID,
			"title":   "Inbox",
			"taskIds": []any{},
		})
		changed = true
	}
	inbox, _ := asObject(projects.entities[models.InboxProjectID])

	tasks, ok := lookupEntityState(doc, "task")
	if !ok {
		return changed, nil
	}

	tasks.each(func(id string, task map[string]any) {
		if parent, _ := asString(task["parentId"]); parent != "" {
			return
		}
		if project, _ := asString(task["projectId"]); project != "" {
			return
		}
		task["projectId"] = models.InboxProjectID
		if inbox != nil {
			appendUnique(inbox, "taskIds", id)
		}
		changed = true
	})

	planner, ok := asObject(doc["planner"])
	if !ok {
		return changed, nil
	}
	days, ok := asObject(planner["days"])
	if !ok {
		return changed, nil
	}
	dayKeys := make([]string, 0, len(days))
	for day := range days {
		dayKeys = append(dayKeys, day)
	}
	slices.Sort(dayKeys)
	for _, day := range dayKeys {
		ids, ok := days[day].([]any)
		if !ok {
			continue
		}
		for _, v := range ids {
			id, _ := asString(v)
			task, ok := asObject(tasks.entities[id])
			if !ok {
				continue
			}
			if timed, ok := task["dueWithTime"]; ok && timed != nil {
				continue
			}
			if cur, _ := asString(task["dueDay"]); cur == day {
				continue
			}
			task["dueDay"] = day
			changed = true
		}
	}

	return changed, nil
}

func appendUnique(obj map[string]any, key, value string) {
	list, _ := obj[key].([]any)
	for _, v := range list {
		if s, _ := asString(v); s == value {
			return
		}
	}
	obj[key] = append(list, value)
}

// renameDateFields переименовывает plannedAt в dueWithTime. Задача со
// временем не может одновременно иметь dueDay.
func renameDateFields(doc Document) (bool, error) {
	changed := false
	fix := func(_ string, task map[string]any) {
		if v, ok := task["plannedAt"]; ok {
			if _, exists := task["dueWithTime"]; !exists && v != nil {
				task["dueWithTime"] = v
			}
			delete(task, "plannedAt")
			changed = true
		}
		if v, ok := task["dueWithTime"]; ok && v != nil {
			if _, has := task["dueDay"]; has {
				delete(task, "dueDay")
				changed = true
			}
		}
	}

	if tasks, ok := lookupEntityState(doc, "task"); ok {
		tasks.each(fix)
	}
	for _, key := range []string{keyArchiveYoung, keyArchiveOld} {
		archive, ok := asObject(doc[key])
		if !ok {
			continue
		}
		if tasks, ok := lookupEntityState(archive, "task"); ok {
			tasks.each(fix)
		}
	}
	return changed, nil
}

// backfillRepeatCfg заполняет пару lastTaskCreation/lastTaskCreationDay
// по тому полю, которое есть, и значения по умолчанию.
func backfillRepeatCfg(doc Document) (bool, error) {
	cfgs, ok := lookupEntityState(doc, "taskRepeatCfg")
	if !ok {
		return false, nil
	}

	changed := false
	cfgs.each(func(_ string, cfg map[string]any) {
		ts, hasTS := asInt(cfg["lastTaskCreation"])
		day, hasDay := asString(cfg["lastTaskCreationDay"])
		hasDay = hasDay && day != ""

		switch {
		case hasTS && !hasDay:
			cfg["lastTaskCreationDay"] = time.UnixMilli(ts).UTC().Format("2006-01-02")
			changed = true
		case hasDay && !hasTS:
			if d, err := time.Parse("2006-01-02", day); err == nil {
				cfg["lastTaskCreation"] = d.UnixMilli()
				changed = true
			}
		}

		for key, def := range repeatCfgDefaults {
			if _, ok := cfg[key]; !ok {
				cfg[key] = def
				changed = true
			}
		}
	})
	return changed, nil
}

var repeatCfgDefaults = map[string]any{
	"repeatCycle": "WEEKLY",
	"repeatEvery": int64(1),
	"isPaused":    false,
	"order":       int64(0),
}

// scaffold создает недостающие коллекции, singleton-ы и архивы.
func scaffold(doc Document) (bool, error) {
	changed := false

	for _, t := range models.CollectionTypes() {
		key := t.StateKey()
		if _, ok := asObject(doc[key]); ok {
			continue
		}
		doc[key] = newEntityStateNode()
		changed = true
	}

	for key, def := range singletonDefaults() {
		if _, ok := asObject(doc[key]); ok {
			continue
		}
		doc[key] = def
		changed = true
	}

	for _, key := range []string{keyArchiveYoung, keyArchiveOld} {
		archive, ok := asObject(doc[key])
		if !ok {
			doc[key] = newArchiveNode()
			changed = true
			continue
		}
		if _, ok := asObject(archive["task"]); !ok {
			archive["task"] = newEntityStateNode()
			changed = true
		}
		if _, ok := asObject(archive["timeTracking"]); !ok {
			archive["timeTracking"] = map[string]any{"project": map[string]any{}, "tag": map[string]any{}}
			changed = true
		}
		if _, ok := archive["lastTimeTrackingFlush"]; !ok {
			archive["lastTimeTrackingFlush"] = int64(0)
			changed = true
		}
	}

	return changed, nil
}

func singletonDefaults() map[string]any {
	return map[string]any{
		"globalConfig": map[string]any{},
		"planner":      map[string]any{"days": map[string]any{}},
		"menuTree":     map[string]any{"projectTree": []any{}, "tagTree": []any{}},
		"timeTracking": map[string]any{"project": map[string]any{}, "tag": map[string]any{}},
	}
}

func newArchiveNode() map[string]any {
	return map[string]any{
		"task":                  newEntityStateNode(),
		"timeTracking":          map[string]any{"project": map[string]any{}, "tag": map[string]any{}},
		"lastTimeTrackingFlush": int64(0),
	}
}

// retiredLanguages коды языков, которые больше не поддерживаются, и их замены
var retiredLanguages = map[string]string{
	"zh_tw": "zh-tw",
	"pt_br": "pt-br",
	"no":    "nb",
}

// renameLocalization переименовывает globalConfig.lang в localization и
// заменяет устаревшие коды языков.
func renameLocalization(doc Document) (bool, error) {
	cfg, ok := asObject(doc["globalConfig"])
	if !ok {
		return false, nil
	}

	changed := false
	if lang, ok := cfg["lang"]; ok {
		if _, exists := cfg["localization"]; !exists {
			cfg["localization"] = lang
		}
		delete(cfg, "lang")
		changed = true
	}

	loc, ok := asObject(cfg["localization"])
	if !ok {
		return changed, nil
	}
	if lng, ok := asString(loc["lng"]); ok {
		if next, retired := retiredLanguages[lng]; retired {
			loc["lng"] = next
			changed = true
		}
	}
	return changed, nil
}

// pruneUnknown удаляет ключи верхнего уровня, которых нет в текущей схеме.
func pruneUnknown(doc Document) (bool, error) {
	allowed := AllowedKeys()
	changed := false
	for key := range doc {
		// маркер старой схемы разбирает splitArchive
		if key == keyTaskArchive {
			continue
		}
		if !slices.Contains(allowed, key) {
			delete(doc, key)
			changed = true
		}
	}
	return changed, nil
}

// AllowedKeys returns the top level keys of the current backup shape.
func AllowedKeys() []string {
	keys := make([]string, 0, 16)
	for _, t := range models.CollectionTypes() {
		keys = append(keys, t.StateKey())
	}
	for _, t := range models.SingletonTypes() {
		keys = append(keys, t.StateKey())
	}
	return append(keys, keyArchiveYoung, keyArchiveOld)
}
