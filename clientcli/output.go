package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sagarc03/gallery"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatImage(w io.Writer, image gallery.ImageRecord) error
	FormatError(w io.Writer, err error) error
	FormatProfiles(w io.Writer, file *ConfigFile) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
// In quiet mode only the new image ids are printed.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if f.Quiet {
			_, _ = fmt.Fprintln(w, r.Image.ID)
			continue
		}
		_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", r.LocalPath, r.Image.ID, formatSize(r.Image.Size))
		_, _ = fmt.Fprintf(w, "  URL: %s\n", r.Image.URL)
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.ID, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.ID, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.ID, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.ID)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Images) == 0 {
		_, _ = fmt.Fprintln(w, "No images found")
		return nil
	}

	if f.Quiet {
		for i := range result.Images {
			_, _ = fmt.Fprintln(w, result.Images[i].ID)
		}
		return nil
	}

	maxTitleLen := 5 // "TITLE"
	for i := range result.Images {
		if len(result.Images[i].Title) > maxTitleLen {
			maxTitleLen = len(result.Images[i].Title)
		}
	}
	if maxTitleLen > 40 {
		maxTitleLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %-19s  %s\n", "ID", maxTitleLen, "TITLE", "SIZE", "UPLOADED", "TAGS")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		strings.Repeat("-", 36), strings.Repeat("-", maxTitleLen), strings.Repeat("-", 10), strings.Repeat("-", 19), strings.Repeat("-", 4))

	for i := range result.Images {
		img := &result.Images[i]
		title := img.Title
		if len(title) > maxTitleLen {
			title = title[:maxTitleLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %-19s  %s\n",
			img.ID,
			maxTitleLen,
			title,
			formatSize(img.Size),
			img.UploadedAt.Format("2006-01-02 15:04:05"),
			strings.Join(img.Tags, ", "),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d image(s) (%s total)\n", len(result.Images), formatSize(result.TotalSize()))
	return nil
}

// FormatImage formats a single image record as human-readable text.
func (f *HumanFormatter) FormatImage(w io.Writer, image gallery.ImageRecord) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, image.URL)
		return nil
	}
	_, _ = fmt.Fprintf(w, "ID:          %s\n", image.ID)
	_, _ = fmt.Fprintf(w, "Title:       %s\n", image.Title)
	if image.Description != "" {
		_, _ = fmt.Fprintf(w, "Description: %s\n", image.Description)
	}
	if len(image.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "Tags:        %s\n", strings.Join(image.Tags, ", "))
	}
	_, _ = fmt.Fprintf(w, "File:        %s (%s, %s)\n", image.OriginalName, image.Type, formatSize(image.Size))
	_, _ = fmt.Fprintf(w, "Uploaded:    %s\n", image.UploadedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "URL:         %s\n", image.URL)
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfiles prints one profile per line, the default marked with "*".
func (f *HumanFormatter) FormatProfiles(w io.Writer, file *ConfigFile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tPROFILE\tENDPOINT")
	for _, name := range file.Names() {
		marker := ""
		if name == file.Default {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, name, file.Endpoints[name])
	}
	return tw.Flush()
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath string               `json:"local_path"`
		Image     *gallery.ImageRecord `json:"image,omitempty"`
		Error     string               `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{LocalPath: r.LocalPath}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			image := r.Image
			jr.Image = &image
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			ID:      r.ID,
			Deleted: r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatImage formats a single image record as JSON.
func (f *JSONFormatter) FormatImage(w io.Writer, image gallery.ImageRecord) error {
	return writeJSON(w, image)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfiles writes the profiles in name order.
func (f *JSONFormatter) FormatProfiles(w io.Writer, file *ConfigFile) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Default  bool   `json:"default"`
	}

	profiles := make([]jsonProfile, 0, len(file.Endpoints))
	for _, name := range file.Names() {
		profiles = append(profiles, jsonProfile{
			Name:     name,
			Endpoint: file.Endpoints[name],
			Default:  name == file.Default,
		})
	}
	return writeJSON(w, struct {
		Profiles []jsonProfile `json:"profiles"`
	}{Profiles: profiles})
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
