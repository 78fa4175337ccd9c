package gallery_test

import (
	"testing"

	"github.com/sagarc03/gallery"
	"github.com/stretchr/testify/assert"
)

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "image:abc", gallery.RecordKey("abc"))

	id, ok := gallery.IDFromKey("image:abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = gallery.IDFromKey("image:")
	assert.False(t, ok)

	_, ok = gallery.IDFromKey("thumb:abc")
	assert.False(t, ok)
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  gallery.Tables
		wantErr bool
	}{
		{name: "valid", tables: gallery.Tables{Records: "gallery_records"}},
		{name: "empty", tables: gallery.Tables{}, wantErr: true},
		{name: "upper case", tables: gallery.Tables{Records: "Records"}, wantErr: true},
		{name: "leading digit", tables: gallery.Tables{Records: "1records"}, wantErr: true},
		{name: "injection", tables: gallery.Tables{Records: "records; drop table x"}, wantErr: true},
		{name: "too long", tables: gallery.Tables{Records: "a234567890123456789012345678901234567890123456789012345678901234"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, "image:", gallery.EscapeLikePattern("image:"))
	assert.Equal(t, `a\_b\%c\\d`, gallery.EscapeLikePattern(`a_b%c\d`))
}

func TestImageRecord_Clone(t *testing.T) {
	orig := gallery.ImageRecord{ID: "1", Tags: []string{"a"}}
	c := orig.Clone()
	c.Tags[0] = "changed"
	assert.Equal(t, "a", orig.Tags[0])

	empty := gallery.ImageRecord{}.Clone()
	assert.NotNil(t, empty.Tags)
}
