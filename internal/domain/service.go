package domain

import "github.com/google/uuid"

type ServiceStatus string

const (
	ServiceStatusOnline  ServiceStatus = "online"
	ServiceStatusOffline ServiceStatus = "offline"
	ServiceStatusUnknown ServiceStatus = "unknown"
)

// Service is a cache-bearing application registered with the control plane,
// either by an admin or by the owning agent through the callback route.
// AgentID is a plain reference, not enforced at the database level.
type Service struct {
	Document
	Name           string        `json:"name"`
	Status         ServiceStatus `json:"status"`
	ServiceVersion string        `json:"serviceVersion,omitempty"`
	Port           int           `json:"port,omitempty"`
	Description    string        `json:"description,omitempty"`
	AgentID        *uuid.UUID    `json:"agentId,omitempty"`
}

func (s *Service) Doc() *Document { return &s.Document }
