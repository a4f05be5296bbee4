package api

import "encoding/json"

// Operation одна операция лога в формате обмена между устройствами
type Operation struct {
	VectorClock   map[string]int64 `json:"vectorClock"`
	ServerSeq     *int64           `json:"serverSeq,omitempty"` // назначается сервером при приеме
	ID            string           `json:"id"`
	ActionType    string           `json:"actionType"`
	OpType        string           `json:"opType"`
	EntityType    string           `json:"entityType"`
	EntityID      string           `json:"entityId,omitempty"`
	ClientID      string           `json:"clientId"`
	Payload       json.RawMessage  `json:"payload,omitempty"`
	Timestamp     int64            `json:"timestamp"`
	SchemaVersion int              `json:"schemaVersion"`
}

// OperationBatch удаленные операции, полученные после известного номера
type OperationBatch struct {
	Ops             []Operation `json:"ops"`
	LatestServerSeq int64       `json:"latestServerSeq"` // последний номер на сервере на момент ответа
}

// UploadRequest локальные операции, ожидающие подтверждения сервером
type UploadRequest struct {
	ClientID           string      `json:"clientId"`
	Ops                []Operation `json:"ops"`
	LastKnownServerSeq int64       `json:"lastKnownServerSeq"`
}

// Ack номер, который сервер присвоил операции
type Ack struct {
	ID        string `json:"id"`
	ServerSeq int64  `json:"serverSeq"`
}

// UploadResult ответ сервера на UploadRequest
type UploadResult struct {
	Acks            []Ack `json:"acks"`
	LatestServerSeq int64 `json:"latestServerSeq"`
}

// Candidate одна из сторон конфликта
type Candidate struct {
	Timestamp      int64 `json:"timestamp"`
	OperationCount int   `json:"operationCount"`
	ClientCount    int   `json:"clientCount"`
}

// ConflictRequest описание конфликта для пользователя или автоматической политики
type ConflictRequest struct {
	RemoteClock         map[string]int64 `json:"remoteClock"`
	Reason              string           `json:"reason"`
	ConflictingEntities []string         `json:"conflictingEntities,omitempty"`
	Local               Candidate        `json:"local"`
	Remote              Candidate        `json:"remote"`
	LatestServerSeq     int64            `json:"latestServerSeq"`
}
