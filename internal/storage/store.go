// Пакет storage — реестр файлов на диске. Ничего не знает о владельцах
// документов: хранит байты по uuid и отдаёт location для скачивания.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type FileRef struct {
	ID       uuid.UUID
	Location string
	Size     int64
}

type Store struct {
	dir        string
	publicBase string
}

func NewStore(dir, publicBase string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (s *Store) Save(r io.Reader) (FileRef, error) {
	id := uuid.New()
	path := s.path(id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return FileRef{}, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return FileRef{}, fmt.Errorf("write file: %w", err)
	}

	return FileRef{ID: id, Location: s.Location(id), Size: size}, nil
}

func (s *Store) Open(id uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Store) Remove(id uuid.UUID) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) Location(id uuid.UUID) string {
	return s.publicBase + "/files/" + id.String()
}

func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String())
}
