package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no stored content
var ErrNotFound = errors.New("not found")

// Metadata describes a stored page
type Metadata struct {
	ContentType string            `json:"contentType,omitempty"`
	SourceURL   string            `json:"sourceUrl,omitempty"`
	Route       string            `json:"route,omitempty"`
	SearchDate  string            `json:"searchDate,omitempty"`
	RenderedAt  time.Time         `json:"renderedAt,omitempty"`
	Length      int               `json:"length,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// FileInfo contains information about a stored file
type FileInfo struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum"`
	ModifiedAt time.Time `json:"modifiedAt"`
	Metadata   *Metadata `json:"metadata,omitempty"`
}

// Storage is a key/value blob store for rendered pages
type Storage interface {
	// Put stores content at the given key with optional metadata
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error

	// Get retrieves content from the given key
	Get(ctx context.Context, key string) ([]byte, error)

	// GetInfo retrieves file information without content
	GetInfo(ctx context.Context, key string) (*FileInfo, error)

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes a file at the given key
	Delete(ctx context.Context, key string) error

	// List returns all keys matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}
