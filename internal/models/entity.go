package models

// EntityType тип доменной сущности в состоянии приложения.
type EntityType string

const (
	EntityTask          EntityType = "TASK"
	EntityProject       EntityType = "PROJECT"
	EntityTag           EntityType = "TAG"
	EntityNote          EntityType = "NOTE"
	EntityTaskRepeatCfg EntityType = "TASK_REPEAT_CFG"
	EntitySimpleCounter EntityType = "SIMPLE_COUNTER"
	EntityMetric        EntityType = "METRIC"
	EntityBoard         EntityType = "BOARD"

	EntityGlobalConfig EntityType = "GLOBAL_CONFIG"
	EntityPlanner      EntityType = "PLANNER"
	EntityMenuTree     EntityType = "MENU_TREE"
	EntityTimeTracking EntityType = "TIME_TRACKING"

	// EntityAll используется операциями SYNC_IMPORT, затрагивающими все состояние
	EntityAll EntityType = "ALL"
)

// InboxProjectID id проекта "Входящие", который существует всегда
const InboxProjectID = "INBOX_PROJECT"

var collectionKeys = map[EntityType]string{
	EntityTask:          "task",
	EntityProject:       "project",
	EntityTag:           "tag",
	EntityNote:          "note",
	EntityTaskRepeatCfg: "taskRepeatCfg",
	EntitySimpleCounter: "simpleCounter",
	EntityMetric:        "metric",
	EntityBoard:         "boards",
}

var singletonKeys = map[EntityType]string{
	EntityGlobalConfig: "globalConfig",
	EntityPlanner:      "planner",
	EntityMenuTree:     "menuTree",
	EntityTimeTracking: "timeTracking",
}

// CollectionTypes возвращает типы, хранимые как словари по id, в стабильном порядке
func CollectionTypes() []EntityType {
	return []EntityType{
		EntityTask, EntityProject, EntityTag, EntityNote,
		EntityTaskRepeatCfg, EntitySimpleCounter, EntityMetric, EntityBoard,
	}
}

// SingletonTypes возвращает типы, хранимые одним документом, в стабильном порядке
func SingletonTypes() []EntityType {
	return []EntityType{EntityGlobalConfig, EntityPlanner, EntityMenuTree, EntityTimeTracking}
}

// IsSingleton проверяет, хранится ли тип одним документом
func (t EntityType) IsSingleton() bool {
	_, ok := singletonKeys[t]
	return ok
}

// StateKey возвращает ключ верхнего уровня для типа в документе бэкапа
func (t EntityType) StateKey() string {
	if k, ok := collectionKeys[t]; ok {
		return k
	}
	return singletonKeys[t]
}

// EntityTypeForKey обратна StateKey
func EntityTypeForKey(key string) (EntityType, bool) {
	for t, k := range collectionKeys {
		if k == key {
			return t, true
		}
	}
	for t, k := range singletonKeys {
		if k == key {
			return t, true
		}
	}
	return "", false
}
