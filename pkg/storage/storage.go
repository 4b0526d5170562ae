package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the upload size cap used when the operator does not
// configure an override.
const DefaultMaxFileSize = 10 << 20 // 10 MiB

var (
	// ErrUnsupportedFileType is returned for anything that is not a JPEG,
	// PNG or WebP image.
	ErrUnsupportedFileType = fmt.Errorf("unsupported file type, only JPEG, PNG and WebP are allowed")
	// ErrFileTooLarge is returned when a file exceeds the configured size cap.
	ErrFileTooLarge = fmt.Errorf("file exceeds the maximum allowed size")
)

// allowedMimeTypes mirrors the accepted image formats of the upload policy.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// StoredFile describes one file persisted by the store. FilePath is the
// on-disk location, URL the path it is served back under. OriginalName is
// the untrusted client-supplied name, retained as metadata only.
type StoredFile struct {
	Filename     string
	OriginalName string
	FilePath     string
	URL          string
	Size         int64
	MimeType     string
}

// FileStore persists uploads under a single flat directory. Every stored
// name is a freshly generated token plus timestamp plus the original
// extension, so concurrent uploads never collide on a path and client
// names never reach the filesystem.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore creates the uploads directory if needed and returns a store
// writing into it. maxSize <= 0 selects DefaultMaxFileSize.
func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &FileStore{
		dir:     dir,
		maxSize: maxSize,
	}, nil
}

// Dir returns the directory files are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Validate checks a file's declared MIME type and size against the upload
// policy. It runs before any disk write, so a rejected file never leaves a
// partial artifact.
func (s *FileStore) Validate(file *multipart.FileHeader) error {
	mimeType := strings.ToLower(file.Header.Get("Content-Type"))
	if !allowedMimeTypes[mimeType] {
		return ErrUnsupportedFileType
	}
	if file.Size > s.maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// Save validates the file and writes it to disk under a generated name.
func (s *FileStore) Save(file *multipart.FileHeader) (*StoredFile, error) {
	if err := s.Validate(file); err != nil {
		return nil, err
	}

	filename := generateFilename(file.Filename)
	path := filepath.Join(s.dir, filename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A half-written file is useless; remove it before reporting.
		if rmErr := os.Remove(path); rmErr != nil {
			err = fmt.Errorf("%w (cleanup failed: %v)", err, rmErr)
		}
		return nil, fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return &StoredFile{
		Filename:     filename,
		OriginalName: file.Filename,
		FilePath:     path,
		URL:          "/uploads/" + filename,
		Size:         written,
		MimeType:     strings.ToLower(file.Header.Get("Content-Type")),
	}, nil
}

// Remove deletes a previously stored file by its generated name.
func (s *FileStore) Remove(filename string) error {
	return os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
}

// RemovePath deletes a stored file by its recorded disk path. The path is
// reduced to its base name so database contents can never escape the
// uploads directory.
func (s *FileStore) RemovePath(path string) error {
	return s.Remove(filepath.Base(path))
}

// generateFilename builds "<uuid>-<unix-millis><ext>" from the original
// name's extension. The original name itself never becomes part of a path.
func generateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + ext
}
