package recovery

import (
	"encoding/json"
	"time"

	"github.com/dshills/keypad/internal/codec"
	"github.com/dshills/keypad/internal/filestore"
)

// Snapshot is the persisted recovery copy of a dirty document.
// Field names are part of the on-disk format.
type Snapshot struct {
	DocumentID           string     `json:"documentId"`
	TimestampUTC         time.Time  `json:"timestampUtc"`
	FilePath             string     `json:"filePath"`
	EncodingName         string     `json:"encodingName"`
	HasBOM               bool       `json:"hasBom"`
	PreferredLineEnding  string     `json:"preferredLineEnding"`
	Text                 string     `json:"text"`
	ChangeVersion        int64      `json:"changeVersion"`
	FileLastWriteTimeUTC *time.Time `json:"fileLastWriteTimeUtc"`
}

// NewSnapshot captures a document state at now.
func NewSnapshot(state filestore.DocumentState, now time.Time) *Snapshot {
	snap := &Snapshot{
		DocumentID:          state.ID.String(),
		TimestampUTC:        now.UTC(),
		FilePath:            state.Path,
		EncodingName:        state.Format.Encoding.String(),
		HasBOM:              state.Format.HasBOM,
		PreferredLineEnding: string(state.Format.LineEnding),
		Text:                state.Text,
		ChangeVersion:       state.Version,
	}
	if !state.DiskModTime.IsZero() {
		t := state.DiskModTime.UTC()
		snap.FileLastWriteTimeUTC = &t
	}
	return snap
}

// Ref returns the listing entry for the snapshot.
func (s *Snapshot) Ref() Ref {
	return Ref{
		ID:        filestore.DocumentID(s.DocumentID),
		FilePath:  s.FilePath,
		Timestamp: s.TimestampUTC,
		Version:   s.ChangeVersion,
	}
}

// Format returns the on-disk format recorded in the snapshot.
func (s *Snapshot) Format() codec.Format {
	le, err := codec.ParseLineEnding(s.PreferredLineEnding)
	if err != nil {
		le = codec.LineEndingLF
	}
	return codec.Format{
		Encoding:   codec.ParseEncoding(s.EncodingName),
		HasBOM:     s.HasBOM,
		LineEnding: le,
	}
}

// ToDocument rebuilds a dirty document under the snapshot's identity.
func (s *Snapshot) ToDocument() *filestore.Document {
	state := filestore.DocumentState{
		ID:      filestore.DocumentID(s.DocumentID),
		Path:    s.FilePath,
		Text:    s.Text,
		Format:  s.Format(),
		Version: s.ChangeVersion,
	}
	if s.FileLastWriteTimeUTC != nil {
		state.DiskModTime = s.FileLastWriteTimeUTC.UTC()
	}
	return filestore.RestoreDocument(state)
}

// Marshal encodes the snapshot.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot decodes a snapshot, rejecting one without an id.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if _, err := filestore.ParseDocumentID(snap.DocumentID); err != nil {
		return nil, err
	}
	return &snap, nil
}
