// Package internal holds helpers shared by the metadata backends.
package internal

import (
	"encoding/json"
	"fmt"

	"github.com/sagarc03/gallery"
)

// EncodeRecord serializes a record into the JSON value stored under its key.
func EncodeRecord(r gallery.ImageRecord) ([]byte, error) {
	if r.Tags == nil {
		r.Tags = []string{}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return data, nil
}

// DecodeRecord parses a stored JSON value. key is only used for error context.
func DecodeRecord(key string, data []byte) (gallery.ImageRecord, error) {
	var r gallery.ImageRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return gallery.ImageRecord{}, fmt.Errorf("decode record %s: %w", key, err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}
