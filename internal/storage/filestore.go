package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"learnwise/internal/models"
	"learnwise/internal/util"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("file not found")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// SizeError reports an upload over the configured limit.
type SizeError struct {
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file exceeds the %d byte limit", e.Limit)
}

const (
	metaDir = ".meta"
	tmpDir  = ".tmp"
)

// FileStore keeps uploads directly on the filesystem under generated names.
type FileStore struct {
	root     string
	maxBytes int64
	now      func() time.Time
}

// Handle is an open stored file. Callers must Close it.
type Handle struct {
	*os.File
	Info     models.StoredFile
	Category Category
	ModTime  time.Time
}

func NewFileStore(root string, maxBytes int64) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	for _, dir := range []string{abs, filepath.Join(abs, metaDir), filepath.Join(abs, tmpDir)} {
		if err := util.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	return &FileStore{root: abs, maxBytes: maxBytes, now: time.Now}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) MaxBytes() int64 {
	return s.maxBytes
}

// Store validates and persists one upload. The stored name never derives from
// the client filename beyond its extension.
func (s *FileStore) Store(ctx context.Context, src io.Reader, originalFilename, declaredMime string) (models.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return models.StoredFile{}, err
	}
	name := util.DecodeFilename(originalFilename)
	ext, ok := AllowedExtension(name, declaredMime)
	if !ok {
		return models.StoredFile{}, fmt.Errorf("%w: %q (%s)", ErrUnsupportedType, name, declaredMime)
	}

	id := s.newID(ext)
	path := filepath.Join(s.root, id)
	n, err := util.CopyToFileAtomic(path, filepath.Join(s.root, tmpDir), src, s.maxBytes)
	if errors.Is(err, util.ErrTooLarge) {
		return models.StoredFile{}, &SizeError{Limit: s.maxBytes}
	}
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("store upload: %w", err)
	}

	info := models.StoredFile{
		ID:               id,
		OriginalFilename: name,
		StoredName:       id,
		StoragePath:      path,
		SizeBytes:        n,
		MimeType:         resolveMime(declaredMime, ext),
		UploadedAt:       s.now().UTC(),
	}
	if err := util.WriteJSONAtomic(s.metaPath(id), info); err != nil {
		_ = os.Remove(path)
		return models.StoredFile{}, fmt.Errorf("write file metadata: %w", err)
	}
	return info, nil
}

// Retrieve opens a stored file by id.
func (s *FileStore) Retrieve(id string) (*Handle, error) {
	path, err := util.SafeJoin(s.root, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat stored file: %w", err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	info := s.loadInfo(id, path, st)
	return &Handle{File: f, Info: info, Category: CategoryOf(id), ModTime: st.ModTime()}, nil
}

// loadInfo prefers the sidecar written at upload time and falls back to what
// the filesystem knows for files placed there by other means.
func (s *FileStore) loadInfo(id, path string, st os.FileInfo) models.StoredFile {
	var info models.StoredFile
	if err := util.ReadJSON(s.metaPath(id), &info); err == nil && info.ID == id {
		info.StoragePath = path
		info.SizeBytes = st.Size()
		return info
	}
	return models.StoredFile{
		ID:               id,
		OriginalFilename: id,
		StoredName:       id,
		StoragePath:      path,
		SizeBytes:        st.Size(),
		MimeType:         resolveMime("", strings.ToLower(filepath.Ext(id))),
		UploadedAt:       st.ModTime().UTC(),
	}
}

func (s *FileStore) metaPath(id string) string {
	return filepath.Join(s.root, metaDir, id+".json")
}

func (s *FileStore) newID(ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("file-%d-%s%s", s.now().UnixMilli(), suffix, ext)
}

func resolveMime(declared, ext string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if mt, ok := contentTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
