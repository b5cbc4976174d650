package db

import (
	"time"

	"github.com/guregu/null/v6"
)

// File is the metadata row for a stored object. Times are kept as unix
// seconds in SQLite.
type File struct {
	ID               string      `json:"id"`
	ObjectKey        string      `json:"key"`
	ContentType      string      `json:"content_type"`
	Size             int64       `json:"size"`
	Hash             string      `json:"hash"`
	OrgID            string      `json:"org_id"`
	SourceService    string      `json:"source_service"`
	ReferenceID      null.String `json:"reference_id"`
	OriginalFilename null.String `json:"original_filename"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Link is a presigned download link for ObjectKey.
type Link struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
