package gallery

import (
	"slices"
	"time"
)

// KeyPrefix is the metadata key prefix shared by every image record.
const KeyPrefix = "image:"

// DefaultSignedURLTTL is how long a freshly signed image URL stays valid.
const DefaultSignedURLTTL = 365 * 24 * time.Hour

// ImageRecord is the catalog entry for one uploaded image.
type ImageRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
}

// Clone returns a copy of the record that shares no slices with r.
func (r ImageRecord) Clone() ImageRecord {
	c := r
	c.Tags = slices.Clone(r.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// CreateImage describes an upload.
type CreateImage struct {
	OriginalName string
	ContentType  string
	Size         int64
	Title        string
	Description  string
	Tags         string // comma separated
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// SweepOptions controls an orphan sweep.
type SweepOptions struct {
	// OlderThan skips blobs modified more recently than now-OlderThan so
	// uploads whose metadata write is still in flight are left alone.
	OlderThan time.Duration
	DryRun    bool
}

// SweepResult reports what an orphan sweep found.
type SweepResult struct {
	Scanned  int      `json:"scanned"`
	Orphaned []string `json:"orphaned"`
	Removed  int      `json:"removed"`
	// Skipped counts keys the catalog could not have written. They are
	// never removed.
	Skipped int `json:"skipped"`
}
