package conflict

import (
	"fmt"

	"github.com/iudanet/opsync/internal/crdt"
	"github.com/iudanet/opsync/internal/models"
)

// Reason объясняет, почему требуется решение.
type Reason string

const (
	ReasonConcurrent          Reason = "CONCURRENT"
	ReasonSnapshotReplacement Reason = "SNAPSHOT_REPLACEMENT"
)

// Resolution выбор пользователя или политики.
type Resolution string

const (
	UseLocal  Resolution = "USE_LOCAL"
	UseRemote Resolution = "USE_REMOTE"
)

// ParseResolution accepts USE_LOCAL/USE_REMOTE as well as local/remote.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case string(UseLocal), "local":
		return UseLocal, nil
	case string(UseRemote), "remote":
		return UseRemote, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResolution, s)
	}
}

// Decision решение по конфликту.
type Decision struct {
	Resolution Resolution `json:"resolution"`
	// ResetClock для USE_LOCAL заменяет часы на {clientID: 1} вместо слияния
	ResetClock bool `json:"resetClock,omitempty"`
}

// Candidate описывает одну из сторон конфликта.
type Candidate struct {
	Timestamp      int64 `json:"timestamp"`      // последнее изменение, ms
	OperationCount int   `json:"operationCount"` // количество операций
	ClientCount    int   `json:"clientCount"`    // количество клиентов-авторов
}

// EntityRef указывает на сущность, измененную обеими сторонами.
type EntityRef struct {
	Type models.EntityType `json:"type"`
	ID   string            `json:"id"`
}

func (r EntityRef) String() string {
	if r.ID == "" {
		return string(r.Type)
	}
	return string(r.Type) + ":" + r.ID
}

// Request структурированный запрос на решение конфликта.
type Request struct {
	RemoteClock         crdt.VectorClock    `json:"remoteClock"`
	Reason              Reason              `json:"reason"`
	ConflictingEntities []EntityRef         `json:"conflictingEntities,omitempty"`
	RemoteOps           []*models.Operation `json:"-"`
	Local               Candidate           `json:"local"`
	Remote              Candidate           `json:"remote"`
	LatestServerSeq     int64               `json:"latestServerSeq"`
}

func localCandidate(meta *models.MetaModel, unsynced []*models.Operation) Candidate {
	clients := 0
	for _, v := range meta.VectorClock {
		if v > 0 {
			clients++
		}
	}
	ts := meta.LastUpdate
	for _, op := range unsynced {
		ts = max(ts, op.Timestamp)
	}
	return Candidate{
		Timestamp:      ts,
		OperationCount: len(unsynced),
		ClientCount:    clients,
	}
}

func remoteCandidate(ops []*models.Operation) Candidate {
	clients := make(map[string]struct{})
	var ts int64
	for _, op := range ops {
		clients[op.ClientID] = struct{}{}
		ts = max(ts, op.Timestamp)
	}
	return Candidate{
		Timestamp:      ts,
		OperationCount: len(ops),
		ClientCount:    len(clients),
	}
}
