package clientcli

import (
	"github.com/sagarc03/gallery"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Title       string // optional, server defaults to the file name
	Description string
	Tags        string // comma separated
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string              `json:"local_path"`
	Image     gallery.ImageRecord `json:"image"`
	Err       error               `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	ID        string
	LocalPath string // empty = original file name, "-" = stdout
}

// DownloadResult represents the result of downloading an image.
type DownloadResult struct {
	ID          string `json:"id"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteResult represents the result of deleting a single image.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListResult holds the images returned by a list or search.
type ListResult struct {
	Images []gallery.ImageRecord `json:"images"`
}

// TotalSize calculates the total size of all images in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for i := range r.Images {
		total += r.Images[i].Size
	}
	return total
}

type imageEnvelope struct {
	Success bool                `json:"success"`
	Image   gallery.ImageRecord `json:"image"`
}

type deleteEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
