package recovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/keypad/internal/filestore"
)

const snapshotExt = ".json"

// snapshotFileMode keeps recovery copies private to the user.
const snapshotFileMode fs.FileMode = 0o600

// Ref identifies a persisted snapshot without holding its text.
type Ref struct {
	ID        filestore.DocumentID
	FilePath  string
	Timestamp time.Time
	Version   int64
}

// Store persists snapshots as one JSON file per document under a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id filestore.DocumentID) string {
	return filepath.Join(s.dir, id.String()+snapshotExt)
}

// Write persists snap, replacing any earlier snapshot for the same id.
func (s *Store) Write(snap *Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	id, err := filestore.ParseDocumentID(snap.DocumentID)
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", id, err)
	}
	return filestore.WriteFileAtomic(s.path(id), data, snapshotFileMode)
}

// List returns the snapshots on disk, oldest first. Only the header fields
// are decoded. Files not named after a document id, or whose id field
// disagrees with the name, are skipped.
func (s *Store) List() ([]Ref, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var refs []Ref
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		id, err := filestore.ParseDocumentID(strings.TrimSuffix(name, snapshotExt))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}

		// Unreadable snapshots are still listed so a restore pass can
		// discard them.
		ref := Ref{ID: id}
		if gjson.ValidBytes(data) {
			fields := gjson.GetManyBytes(data, "documentId", "filePath", "timestampUtc", "changeVersion")
			if fields[0].String() != id.String() {
				continue
			}
			ref.FilePath = fields[1].String()
			ref.Timestamp = fields[2].Time()
			ref.Version = fields[3].Int()
		}
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Timestamp.Before(refs[j].Timestamp)
	})
	return refs, nil
}

// Load reads the snapshot for ref. A missing snapshot yields nil and no
// error.
func (s *Store) Load(ref Ref) (*Snapshot, error) {
	if _, err := filestore.ParseDocumentID(ref.ID.String()); err != nil {
		return nil, fmt.Errorf("snapshot id: %w", err)
	}
	data, err := os.ReadFile(s.path(ref.ID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", ref.ID, err)
	}
	return snap, nil
}

// Delete removes the snapshot for id. Deleting a missing snapshot is not
// an error.
func (s *Store) Delete(id filestore.DocumentID) error {
	if _, err := filestore.ParseDocumentID(id.String()); err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
