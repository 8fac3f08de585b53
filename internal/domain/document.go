package domain

import (
	"time"

	"github.com/google/uuid"
)

// Partition keys are fixed per entity type. All documents of a type share one
// logical partition.
const (
	PartitionUsers    = "users"
	PartitionAgents   = "agents"
	PartitionServices = "services"
	PartitionCaches   = "caches"
)

// Document is the base shape shared by every stored entity. IDs and
// timestamps are assigned by the store on create.
type Document struct {
	ID           uuid.UUID `json:"id"`
	PartitionKey string    `json:"partitionKey"`
	Version      string    `json:"version,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Entity is implemented by every stored record. It exposes the embedded
// document metadata so the generic collection can manage it.
type Entity interface {
	Doc() *Document
}
