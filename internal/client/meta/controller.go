package meta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/internal/validation"
)

// Controller владеет идентификатором клиента и мета-моделью.
//
// Методы Prepare* не меняют состояние контроллера: они возвращают следующую
// мета-модель, которую вызывающий код сохраняет в той же транзакции, что и
// операции, и только после успешного коммита передает в Adopt.
type Controller struct {
	store    storage.MetaStorage
	logger   *slog.Logger
	meta     *models.MetaModel
	clientID string
	mu       sync.RWMutex
}

// NewController создает контроллер. До использования нужно вызвать Init.
func NewController(store storage.MetaStorage, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		logger: logger,
	}
}

// NewClientID генерирует новый идентификатор клиента
func NewClientID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Init загружает идентификатор клиента и мета-модель, создавая их при первом
// запуске. Сохраненный id, не прошедший валидацию, заменяется с записью в лог.
func (c *Controller) Init(ctx context.Context) error {
	clientID, err := c.loadClientID(ctx)
	if err != nil {
		return err
	}

	meta, err := c.store.GetMeta(ctx)
	switch {
	case errors.Is(err, storage.ErrMetaNotFound):
		meta = models.NewMetaModel(clientID)
		if err := c.store.SaveMeta(ctx, meta); err != nil {
			return fmt.Errorf("failed to save initial meta: %w", err)
		}
		c.logger.Info("Created meta model", "client_id", clientID)
	case err != nil:
		return fmt.Errorf("failed to load meta: %w", err)
	}

	if meta.RevMap == nil {
		meta.RevMap = map[models.EntityType]int64{}
	}
	if meta.VectorClock == nil {
		meta.VectorClock = crdt.VectorClock{}
	}
	if meta.LastSyncedVectorClock == nil {
		meta.LastSyncedVectorClock = crdt.VectorClock{}
	}
	if _, ok := meta.VectorClock[clientID]; !ok {
		meta.VectorClock[clientID] = 0
		meta.VectorClock = crdt.LimitSize(meta.VectorClock, clientID, meta.ProtectedClientIDs)
	}

	c.mu.Lock()
	c.clientID = clientID
	c.meta = meta
	c.mu.Unlock()

	c.logger.Debug("Meta controller ready",
		"client_id", clientID,
		"clock", meta.VectorClock.String(),
		"last_server_seq", meta.LastServerSeq)

	return nil
}

func (c *Controller) loadClientID(ctx context.Context) (string, error) {
	clientID, err := c.store.GetClientID(ctx)
	switch {
	case errors.Is(err, storage.ErrClientIDNotFound):
		clientID = NewClientID()
		if err := c.store.SaveClientID(ctx, clientID); err != nil {
			return "", fmt.Errorf("failed to save client id: %w", err)
		}
		c.logger.Info("Generated client id", "client_id", clientID)
		return clientID, nil
	case err != nil:
		return "", fmt.Errorf("failed to load client id: %w", err)
	}

	if verr := validation.ValidateClientID(clientID); verr != nil {
		invalid := &ClientIDInvalidError{ClientID: clientID, Err: verr}
		replacement := NewClientID()
		c.logger.Warn("Stored client id is invalid, generating a new one",
			"error", invalid,
			"new_client_id", replacement)
		if err := c.store.SaveClientID(ctx, replacement); err != nil {
			return "", fmt.Errorf("failed to replace client id: %w", errors.Join(invalid, err))
		}
		return replacement, nil
	}

	return clientID, nil
}

// ClientID возвращает идентификатор клиента
func (c *Controller) ClientID() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.meta == nil {
		return "", ErrMetaNotReady
	}
	return c.clientID, nil
}

// Meta возвращает копию текущей мета-модели
func (c *Controller) Meta() (*models.MetaModel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.meta == nil {
		return nil, ErrMetaNotReady
	}
	return c.meta.Clone(), nil
}

// snapshot возвращает копию состояния под блокировкой
func (c *Controller) snapshot() (string, *models.MetaModel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.meta == nil {
		return "", nil, ErrMetaNotReady
	}
	return c.clientID, c.meta.Clone(), nil
}

// PrepareLocalWrite возвращает мета-модель после одной локальной записи
// entityType и часы, которые должна нести новая операция.
func (c *Controller) PrepareLocalWrite(entityType models.EntityType, now time.Time) (*models.MetaModel, crdt.VectorClock, error) {
	next, clocks, err := c.PrepareLocalWrites(entityType, 1, now)
	if err != nil {
		return nil, nil, err
	}
	return next, clocks[0], nil
}

// PrepareLocalWrites то же, что PrepareLocalWrite, для count операций в одном
// коммите. i-я операция несет i-е часы.
func (c *Controller) PrepareLocalWrites(entityType models.EntityType, count int, now time.Time) (*models.MetaModel, []crdt.VectorClock, error) {
	clientID, next, err := c.snapshot()
	if err != nil {
		return nil, nil, err
	}
	if count < 1 {
		return nil, nil, fmt.Errorf("invalid write count %d", count)
	}

	clocks := make([]crdt.VectorClock, 0, count)
	clock := next.VectorClock
	for range count {
		clock, err = crdt.Increment(clock, clientID)
		if err != nil {
			return nil, nil, err
		}
		clock = crdt.LimitSize(clock, clientID, next.ProtectedClientIDs)
		clocks = append(clocks, clock.Clone())
	}

	ms := now.UnixMilli()
	next.VectorClock = clock
	stampRevisions(next, entityType, ms)
	next.LastUpdate = ms
	next.MetaRev++

	return next, clocks, nil
}

// PrepareRemoteMerge возвращает мета-модель после принятия без конфликта
// удаленных операций с часами remoteClock.
func (c *Controller) PrepareRemoteMerge(remoteClock crdt.VectorClock, lastServerSeq int64, now time.Time) (*models.MetaModel, error) {
	clientID, next, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	ms := now.UnixMilli()
	next.VectorClock = crdt.LimitSize(crdt.Merge(next.VectorClock, remoteClock), clientID, next.ProtectedClientIDs)
	next.LastSyncedVectorClock = crdt.LimitSize(crdt.Merge(next.LastSyncedVectorClock, remoteClock), clientID, next.ProtectedClientIDs)
	next.LastServerSeq = max(next.LastServerSeq, lastServerSeq)
	next.LastSyncedUpdate = ms
	next.LastUpdate = max(next.LastUpdate, ms)
	next.MetaRev++

	return next, nil
}

// PrepareSynced возвращает мета-модель после того, как сервер принял
// локальные операции, чьи часы покрыты uploadedClock.
func (c *Controller) PrepareSynced(uploadedClock crdt.VectorClock, lastServerSeq int64, now time.Time) (*models.MetaModel, error) {
	clientID, next, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	next.LastSyncedVectorClock = crdt.LimitSize(crdt.Merge(next.LastSyncedVectorClock, uploadedClock), clientID, next.ProtectedClientIDs)
	next.LastServerSeq = max(next.LastServerSeq, lastServerSeq)
	next.LastSyncedUpdate = now.UnixMilli()
	next.MetaRev++

	return next, nil
}

// PrepareAdoptRemote возвращает мета-модель, принимающую удаленную историю
// целиком. Локальное расхождение отбрасывается.
func (c *Controller) PrepareAdoptRemote(remoteClock crdt.VectorClock, lastServerSeq int64, now time.Time) (*models.MetaModel, error) {
	_, next, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	ms := now.UnixMilli()
	next.VectorClock = remoteClock.Clone()
	next.LastSyncedVectorClock = remoteClock.Clone()
	next.LastServerSeq = lastServerSeq
	next.LastSyncedUpdate = ms
	stampRevisions(next, models.EntityAll, ms)
	next.LastUpdate = ms
	next.MetaRev++

	return next, nil
}

// PrepareSyncImport возвращает мета-модель для импорта полного состояния и
// часы операции SYNC_IMPORT: локальные часы, слитые с base и увеличенные, или
// {clientID: 1} при reset. Все ключи итоговых часов защищаются от обрезки.
func (c *Controller) PrepareSyncImport(base crdt.VectorClock, reset bool, now time.Time) (*models.MetaModel, crdt.VectorClock, error) {
	clientID, next, err := c.snapshot()
	if err != nil {
		return nil, nil, err
	}

	var clock crdt.VectorClock
	if reset {
		clock = crdt.VectorClock{clientID: 1}
	} else {
		clock, err = crdt.Increment(crdt.Merge(next.VectorClock, base), clientID)
		if err != nil {
			return nil, nil, err
		}
		clock = crdt.LimitSize(clock, clientID, next.ProtectedClientIDs)
	}

	ms := now.UnixMilli()
	next.VectorClock = clock
	next.ProtectedClientIDs = clock.Keys()
	stampRevisions(next, models.EntityAll, ms)
	next.LastUpdate = ms
	next.MetaRev++

	return next, clock.Clone(), nil
}

// Adopt устанавливает мета-модель, подготовленную методом Prepare*, после
// ее записи в хранилище.
func (c *Controller) Adopt(next *models.MetaModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = next.Clone()
}

// PrepareNewIdentity возвращает новый идентификатор клиента и мета-модель для
// него. Используется, когда пользователь сознательно отказывается от
// конфликтующей истории. Старый id остается в часах защищенной записью, чтобы
// его прошлые операции сравнивались правильно. Оба значения записываются
// одним коммитом и затем передаются в AdoptIdentity.
func (c *Controller) PrepareNewIdentity() (string, *models.MetaModel, error) {
	oldID, next, err := c.snapshot()
	if err != nil {
		return "", nil, err
	}

	newID := NewClientID()
	next.VectorClock[newID] = 0
	if !slices.Contains(next.ProtectedClientIDs, oldID) {
		next.ProtectedClientIDs = append(next.ProtectedClientIDs, oldID)
	}
	next.VectorClock = crdt.LimitSize(next.VectorClock, newID, next.ProtectedClientIDs)
	next.MetaRev++

	return newID, next, nil
}

// AdoptIdentity устанавливает id и мета-модель из PrepareNewIdentity после
// их записи в хранилище.
func (c *Controller) AdoptIdentity(clientID string, next *models.MetaModel) {
	c.mu.Lock()
	oldID := c.clientID
	c.clientID = clientID
	c.meta = next.Clone()
	c.mu.Unlock()

	c.logger.Warn("Client identity replaced", "old_client_id", oldID, "new_client_id", clientID)
}

// stampRevisions записывает время изменения в revMap
func stampRevisions(m *models.MetaModel, entityType models.EntityType, ms int64) {
	if m.RevMap == nil {
		m.RevMap = map[models.EntityType]int64{}
	}
	if entityType != models.EntityAll {
		m.RevMap[entityType] = ms
		return
	}
	for _, t := range models.CollectionTypes() {
		m.RevMap[t] = ms
	}
	for _, t := range models.SingletonTypes() {
		m.RevMap[t] = ms
	}
}
