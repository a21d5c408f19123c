package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go-chat/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoredFile is the locator tuple the message ledger persists verbatim.
type StoredFile struct {
	Locator      string `json:"locator"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// FileStore is the file-storage collaborator interface. Deletes are
// best-effort; callers never fail an operation on a delete error.
type FileStore interface {
	Save(src io.Reader, originalName, mimeType string, size int64) (*StoredFile, error)
	Delete(locator string) error
}

// LocalStore keeps attachments on the local filesystem under FSPath.
type LocalStore struct {
	dir       string
	urlPrefix string
	log       *zap.Logger
}

func NewLocalStore(cfg *config.Config, log *zap.Logger) (FileStore, error) {
	if err := os.MkdirAll(cfg.FSPath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:       cfg.FSPath,
		urlPrefix: cfg.FSURL,
		log:       log,
	}, nil
}

func (s *LocalStore) Save(src io.Reader, originalName, mimeType string, size int64) (*StoredFile, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	dstPath := filepath.Join(s.dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("write attachment: %w", err)
	}

	return &StoredFile{
		Locator:      name,
		URL:          s.urlPrefix + "/" + name,
		OriginalName: filepath.Base(originalName),
		Size:         size,
		MimeType:     mimeType,
	}, nil
}

func (s *LocalStore) Delete(locator string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(locator)))
	if err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to delete attachment", zap.String("locator", locator), zap.Error(err))
		return err
	}
	return nil
}
