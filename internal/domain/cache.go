package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Cache is a persisted record describing a cache hosted by a service. The
// actual cached data lives in the remote agent; live views of it are fetched
// per request and never stored.
type Cache struct {
	Document
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type,omitempty"`
	Status    string    `json:"status,omitempty"`
	ServiceID uuid.UUID `json:"serviceId"`
}

func (c *Cache) Doc() *Document { return &c.Document }

// CacheEntry is one live cache entry as reported by an agent.
type CacheEntry struct {
	Key        string            `json:"key"`
	Value      json.RawMessage   `json:"value,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	ExpiresAt  *time.Time        `json:"expiresAt,omitempty"`
}

// CacheSnapshot is an agent's live answer for one service: its key list and
// per-key entries.
type CacheSnapshot struct {
	ServiceName string       `json:"serviceName,omitempty"`
	Keys        []string     `json:"keys"`
	Entries     []CacheEntry `json:"entries,omitempty"`
}

// FlushResult reports the outcome of a flush-all relayed to an agent.
type FlushResult struct {
	Flushed int    `json:"flushed"`
	Message string `json:"message,omitempty"`
}
