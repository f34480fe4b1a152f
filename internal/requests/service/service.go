package service

import (
	"solicitudes/internal/requests/ports"
)

// Service groups the request use cases behind one value for transports.
type Service struct {
	Create       *CreateRequest
	Get          *GetRequest
	List         *ListRequests
	UpdateStatus *UpdateRequestStatus
	Delete       *DeleteRequest
}

// New builds every use case over repo with the same options.
func New(repo ports.Repository, opts ...Option) *Service {
	return &Service{
		Create:       NewCreateRequest(repo, opts...),
		Get:          NewGetRequest(repo, opts...),
		List:         NewListRequests(repo, opts...),
		UpdateStatus: NewUpdateRequestStatus(repo, opts...),
		Delete:       NewDeleteRequest(repo, opts...),
	}
}
