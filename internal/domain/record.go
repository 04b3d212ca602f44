// Package domain defines the tag catalog model shared by the analyzer,
// similarity engine, and consolidator.
package domain

// Record is one album row of the tag corpus.
// Tags holds raw strings as supplied by ingestion; after a merge is applied
// they hold canonical strings. A nil Tags slice marks a malformed row
// (the tag column was missing), an empty non-nil slice is an untagged album.
type Record struct {
	AlbumID string   `json:"album_id"`
	Tags    []string `json:"tags"`
}

// Valid reports whether the record can take part in analysis.
func (r Record) Valid() bool {
	return r.AlbumID != "" && r.Tags != nil
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r.Tags == nil {
		return Record{AlbumID: r.AlbumID}
	}
	tags := make([]string, len(r.Tags))
	copy(tags, r.Tags)
	return Record{AlbumID: r.AlbumID, Tags: tags}
}

// CloneRecords deep copies a record set.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
