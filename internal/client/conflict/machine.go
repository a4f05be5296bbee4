package conflict

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/iudanet/opsync/internal/crdt"
)

// State состояние синхронизации относительно удаленной истории.
type State string

const (
	StateSynced          State = "SYNCED"
	StateEvaluating      State = "EVALUATING"
	StateConflictPending State = "CONFLICT_PENDING"
	StateResolved        State = "RESOLVED"
)

// DefaultCooldown окно после разрешения, в течение которого повтор того же
// конфликта подавляется.
const DefaultCooldown = 30 * time.Second

var transitions = map[State][]State{
	StateSynced:          {StateEvaluating},
	StateEvaluating:      {StateSynced, StateConflictPending},
	StateConflictPending: {StateResolved},
	StateResolved:        {StateSynced},
}

// Machine конечный автомат конфликтов. Безопасен для конкурентного использования.
type Machine struct {
	now        func() time.Time
	logger     *slog.Logger
	pending    *Request
	rejected   crdt.VectorClock
	resolvedAt time.Time
	state      State
	cooldown   time.Duration
	mu         sync.Mutex
}

// NewMachine создает автомат в состоянии SYNCED
func NewMachine(cooldown time.Duration, logger *slog.Logger) *Machine {
	return &Machine{
		now:      time.Now,
		logger:   logger,
		state:    StateSynced,
		cooldown: cooldown,
	}
}

// State возвращает текущее состояние
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending возвращает запрос, ожидающий решения, или nil
func (m *Machine) Pending() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Machine) transition(to State) error {
	if !slices.Contains(transitions[m.state], to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.logger.Debug("Conflict state transition", "from", m.state, "to", to)
	m.state = to
	return nil
}

// BeginEvaluation переходит в EVALUATING. Пока конфликт ждет решения,
// возвращает ErrSyncPaused.
func (m *Machine) BeginEvaluation() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConflictPending {
		return ErrSyncPaused
	}
	return m.transition(StateEvaluating)
}

// Settle возвращает автомат в SYNCED после автоматического исхода, неудачной
// оценки или завершенного решения.
func (m *Machine) Settle() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.transition(StateSynced); err != nil {
		return err
	}
	m.pending = nil
	return nil
}

// Suspend запоминает req и переходит в CONFLICT_PENDING
func (m *Machine) Suspend(req *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.transition(StateConflictPending); err != nil {
		return err
	}
	m.pending = req
	m.logger.Info("Sync paused on conflict",
		"reason", req.Reason,
		"local_ops", req.Local.OperationCount,
		"remote_ops", req.Remote.OperationCount,
		"entities", len(req.ConflictingEntities))
	return nil
}

// MarkResolved переходит в RESOLVED после записи решения и запускает окно
// подавления для обработанных удаленных часов.
func (m *Machine) MarkResolved(remoteClock crdt.VectorClock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.transition(StateResolved); err != nil {
		return err
	}
	m.rejected = remoteClock.Clone()
	m.resolvedAt = m.now()
	return nil
}

// Suppresses проверяет, повторяет ли конфликт с remoteClock тот, что был
// разрешен внутри окна подавления.
func (m *Machine) Suppresses(remoteClock crdt.VectorClock) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rejected == nil || m.now().Sub(m.resolvedAt) > m.cooldown {
		return false
	}
	rel := crdt.Compare(remoteClock, m.rejected)
	return rel == crdt.Equal || rel == crdt.LessThan
}
