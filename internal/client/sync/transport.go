package sync

import (
	"context"

	"github.com/iudanet/opsync/pkg/api"
)

//go:generate moq -out transport_mock.go . Transport

// Transport доставляет операции между устройством и сервером.
// Конкретный протокол находится вне этого пакета.
type Transport interface {
	// Fetch returns the operations with a server sequence greater than since
	Fetch(ctx context.Context, since int64) (*api.OperationBatch, error)

	// Upload sends local operations and returns the assigned server sequences
	Upload(ctx context.Context, req *api.UploadRequest) (*api.UploadResult, error)
}
