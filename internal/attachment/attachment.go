// Package attachment ingests uploaded cover letters and company logos.
//
// Uploads are checked against the declared MIME type and size only; file
// contents are never inspected beyond counting bytes. Stored names combine
// the owner, the purpose, a millisecond timestamp and a random suffix, and
// are created exclusively, so concurrent uploads cannot overwrite each other.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/jobtrack/internal/apperror"
)

const DefaultURLPrefix = "/uploads"

// Upload describes one incoming file.
type Upload struct {
	OwnerID  string
	Purpose  Purpose
	MIMEType string
	Size     int64
	// Filename is the client-side name; only its extension is kept.
	Filename string
	Content  io.Reader
}

type Ingestor struct {
	storage   Storage
	urlPrefix string
	now       func() time.Time
	logger    *slog.Logger
}

// NewIngestor returns an Ingestor writing to storage and returning
// references under urlPrefix (DefaultURLPrefix when empty).
func NewIngestor(storage Storage, urlPrefix string, logger *slog.Logger) *Ingestor {
	urlPrefix = strings.TrimRight(urlPrefix, "/")
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{storage: storage, urlPrefix: urlPrefix, now: time.Now, logger: logger}
}

// Ingest validates u, stores its content and returns the reference path to
// record on an application.
func (i *Ingestor) Ingest(ctx context.Context, u Upload) (string, error) {
	if u.OwnerID == "" {
		return "", apperror.NewAuth("authentication required")
	}
	if strings.ContainsAny(u.OwnerID, `/\.`) {
		return "", apperror.NewValidation("invalid owner id")
	}
	rule, ok := rules[u.Purpose]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("unknown upload type %q", u.Purpose))
	}
	if u.Content == nil || u.Size <= 0 {
		return "", apperror.NewValidation("no file supplied")
	}
	ext, ok := rule.Types[u.MIMEType]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("file type %q is not allowed; accepted: %s", u.MIMEType, strings.Join(rule.Allowed(), ", ")))
	}
	if u.Size > rule.MaxBytes {
		return "", apperror.NewValidation(fmt.Sprintf("file is too large (max %d MiB)", rule.MaxBytes/MiB))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e := extension(u.Filename); e != "" {
		ext = e
	}

	name := fmt.Sprintf("%s_%s_%d_%s%s", u.OwnerID, u.Purpose, i.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	w, err := i.storage.Create(name)
	if err != nil {
		i.logger.Error("failed to create upload", "name", name, "err", err)
		return "", apperror.NewStorage("failed to store file", err)
	}

	n, err := io.Copy(w, io.LimitReader(u.Content, rule.MaxBytes+1))
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		i.discard(name)
		i.logger.Error("failed to write upload", "name", name, "err", err)
		return "", apperror.NewStorage("failed to store file", err)
	case n > rule.MaxBytes:
		i.discard(name)
		return "", apperror.NewValidation(fmt.Sprintf("file is too large (max %d MiB)", rule.MaxBytes/MiB))
	case n == 0:
		i.discard(name)
		return "", apperror.NewValidation("no file supplied")
	}

	i.logger.Info("attachment stored",
		slog.String("user_id", u.OwnerID),
		slog.String("purpose", string(u.Purpose)),
		slog.String("name", name),
		slog.Int64("bytes", n),
	)
	return path.Join(i.urlPrefix, name), nil
}

// Open returns a stored file by name. Names that could escape the storage
// namespace are reported as not found.
func (i *Ingestor) Open(name string) (File, error) {
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, apperror.NewNotFound("file not found")
	}
	f, err := i.storage.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NewNotFound("file not found")
		}
		i.logger.Error("failed to open upload", "name", name, "err", err)
		return nil, apperror.NewStorage("failed to open file", err)
	}
	return f, nil
}

func (i *Ingestor) discard(name string) {
	if err := i.storage.Remove(name); err != nil {
		i.logger.Warn("failed to remove partial upload", "name", name, "err", err)
	}
}

// extension returns the lower-cased extension of name when it is a plain
// alphanumeric suffix, and "" otherwise.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// URLPrefix is the prefix of every reference path Ingest returns.
func (i *Ingestor) URLPrefix() string { return i.urlPrefix }
