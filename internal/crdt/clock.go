// Package crdt реализует векторные часы, по которым движок синхронизации
// определяет причинный порядок операций: сравнение, слияние, инкремент и
// ограничение размера.
package crdt

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/iudanet/opsync/internal/validation"
)

const (
	// MaxVectorClockSize ограничивает количество клиентов в одном vector clock.
	MaxVectorClockSize = 10

	// MaxSafeCounter наибольшее значение счетчика, которое любое устройство
	// представляет точно (2^53-1, предел безопасного целого в JSON).
	MaxSafeCounter int64 = 1<<53 - 1
)

// Relation причинное отношение двух векторных часов.
type Relation string

const (
	Equal       Relation = "EQUAL"
	LessThan    Relation = "LESS_THAN"
	GreaterThan Relation = "GREATER_THAN"
	Concurrent  Relation = "CONCURRENT"
)

// Inverse возвращает отношение с точки зрения другой стороны сравнения.
func (r Relation) Inverse() Relation {
	switch r {
	case LessThan:
		return GreaterThan
	case GreaterThan:
		return LessThan
	default:
		return r
	}
}

// VectorClock сопоставляет идентификатору клиента количество его операций.
// Отсутствующий ключ читается как ноль.
type VectorClock map[string]int64

// Clone возвращает независимую копию часов. Для nil возвращается пустая карта.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// Sum возвращает сумму всех компонент. Если a произошло раньше b, то
// a.Sum() < b.Sum(), поэтому сумма продолжает причинный порядок до линейного.
func (vc VectorClock) Sum() int64 {
	var total int64
	for _, v := range vc {
		total += v
	}
	return total
}

// Keys возвращает идентификаторы клиентов в отсортированном порядке.
func (vc VectorClock) Keys() []string {
	keys := make([]string, 0, len(vc))
	for k := range vc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String детерминированно форматирует часы для логов.
func (vc VectorClock) String() string {
	parts := make([]string, 0, len(vc))
	for _, k := range vc.Keys() {
		parts = append(parts, fmt.Sprintf("%s:%d", k, vc[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Increment возвращает копию часов с компонентой clientID, увеличенной на 1.
// Увеличивать компоненту может только клиент-владелец.
func Increment(clock VectorClock, clientID string) (VectorClock, error) {
	if clientID == "" || len(clientID) < validation.MinClientIDLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClientID, clientID)
	}

	current := clock[clientID]
	if current >= MaxSafeCounter-1 {
		return nil, &VectorClockOverflowError{ClientID: clientID, Value: current}
	}

	out := clock.Clone()
	out[clientID] = current + 1
	return out, nil
}

// Compare определяет причинное отношение a к b.
func Compare(a, b VectorClock) Relation {
	aGreater, bGreater := false, false

	for k, av := range a {
		bv := b[k]
		if av > bv {
			aGreater = true
		} else if bv > av {
			bGreater = true
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; ok {
			continue
		}
		if bv > 0 {
			bGreater = true
		}
	}

	switch {
	case aGreater && bGreater:
		return Concurrent
	case aGreater:
		return GreaterThan
	case bGreater:
		return LessThan
	default:
		return Equal
	}
}

// Merge возвращает покомпонентный максимум a и b.
func Merge(a, b VectorClock) VectorClock {
	out := make(VectorClock, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		// нулевые компоненты из b тоже переносим, чтобы merge(a,b) == merge(b,a)
		if cur, ok := out[k]; !ok || v > cur {
			out[k] = v
		}
	}
	return out
}

// LimitSize обрезает часы до MaxVectorClockSize записей. Текущий клиент и все
// защищенные идентификаторы, присутствующие в часах, сохраняются всегда.
// Остальные места получают наибольшие счетчики, при равенстве решает id.
//
// Удаление записи с малым счетчиком, которую другая сторона еще несет, может
// превратить настоящий LESS_THAN/GREATER_THAN в CONCURRENT. Защищенные
// идентификаторы сужают это окно, но не закрывают его.
func LimitSize(clock VectorClock, currentClientID string, protectedClientIDs []string) VectorClock {
	if len(clock) <= MaxVectorClockSize {
		return clock.Clone()
	}

	out := make(VectorClock, MaxVectorClockSize)
	if v, ok := clock[currentClientID]; ok {
		out[currentClientID] = v
	}
	for _, id := range protectedClientIDs {
		if len(out) >= MaxVectorClockSize {
			break
		}
		if v, ok := clock[id]; ok {
			out[id] = v
		}
	}

	type entry struct {
		id    string
		value int64
	}
	rest := make([]entry, 0, len(clock))
	for id, v := range clock {
		if _, kept := out[id]; kept {
			continue
		}
		rest = append(rest, entry{id: id, value: v})
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].value != rest[j].value {
			return rest[i].value > rest[j].value
		}
		return rest[i].id < rest[j].id
	})

	for _, e := range rest {
		if len(out) >= MaxVectorClockSize {
			break
		}
		out[e.id] = e.value
	}

	return out
}

// HasChanges сообщает, есть ли в current изменения, не покрытые reference.
//
// Ненулевая компонента reference, которой нет в current, считается изменением,
// пока размер current меньше предела: такой пропуск не может быть результатом
// обрезки и указывает на сброс или повреждение. На пределе ключ считается
// обрезанным, и при logger != nil это логируется.
func HasChanges(current, reference VectorClock, logger *slog.Logger) bool {
	for k, v := range current {
		if v > reference[k] {
			return true
		}
	}

	for k, v := range reference {
		if v == 0 {
			continue
		}
		if _, ok := current[k]; ok {
			continue
		}
		if len(current) < MaxVectorClockSize {
			return true
		}
		if logger != nil {
			logger.Debug("Reference clock key missing from pruned clock",
				"client_id", k,
				"reference_value", v,
				"current_size", len(current))
		}
	}

	return false
}
