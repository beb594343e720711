// Package media stores uploaded recipe images on local disk.
package media

import (
	"encoding/base64"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

const imagesDir = "recipes/images"

var (
	ErrMalformedDataURI = errors.New("image must be a data URI: data:image/<ext>;base64,<payload>")

	extRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]{0,15}$`)
)

type Storage struct {
	root   string
	url    string
	logger *zap.SugaredLogger
}

func NewStorage(cfg *config.Config, l *zap.SugaredLogger) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(cfg.MediaRoot, filepath.FromSlash(imagesDir)), 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	return &Storage{
		root:   cfg.MediaRoot,
		url:    cfg.MediaURL,
		logger: l,
	}, nil
}

// DecodeDataURI splits "data:image/<ext>;base64,<payload>" into the decoded
// bytes and the extension taken from the MIME subtype.
func DecodeDataURI(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, "data:image/") {
		return nil, "", ErrMalformedDataURI
	}
	parts := strings.SplitN(s, ";base64,", 2)
	if len(parts) != 2 {
		return nil, "", ErrMalformedDataURI
	}

	ext, err := Ext(strings.TrimPrefix(parts[0], "data:"))
	if err != nil {
		return nil, "", err
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", errors.Wrap(ErrMalformedDataURI, "decode base64 payload")
	}
	if len(data) == 0 {
		return nil, "", errors.Wrap(ErrMalformedDataURI, "empty payload")
	}
	return data, ext, nil
}

// Ext returns the file extension for an image MIME type such as image/png.
func Ext(mime string) (string, error) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", ErrMalformedDataURI
	}
	ext := strings.TrimPrefix(mime, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	if !extRe.MatchString(ext) {
		return "", ErrMalformedDataURI
	}
	return ext, nil
}

// Save writes data under a fresh name and returns the name relative to the
// media root, e.g. recipes/images/<uuid>.png.
func (s *Storage) Save(ext string, data []byte) (string, error) {
	name := path.Join(imagesDir, uuid.New().String()+"."+ext)
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(name)), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write image")
	}
	s.logger.Debugw("image stored", "name", name, "size", len(data))
	return name, nil
}

// SaveDataURI decodes and stores a data-URI image.
func (s *Storage) SaveDataURI(uri string) (string, error) {
	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	return s.Save(ext, data)
}

// Remove deletes a stored image; failures are only logged.
func (s *Storage) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean(name)))); err != nil && !os.IsNotExist(err) {
		s.logger.Warnw("remove image", "name", name, "error", err)
	}
}

// URL maps a stored name to the public path it is served under.
func (s *Storage) URL(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(s.url, "/") + "/" + name
}

func (s *Storage) Root() string {
	return s.root
}
