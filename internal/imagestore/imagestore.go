package imagestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// maxImageSize bounds a single download to 32MB
const maxImageSize = 32 << 20

// storedName matches filenames produced by Store. Open only serves
// names of this shape, which rules out path traversal.
var storedName = regexp.MustCompile(`^[0-9a-f]{12}_[0-9]+\.(png|jpg|jpeg|webp|gif)$`)

// Store is a content-addressed local cache of downloaded images.
// Files are keyed by a SHA-256 prefix of their content; a timestamp
// suffix keeps concurrent writes of identical content from colliding.
type Store struct {
	dir    string
	client *http.Client
}

// StoredImage describes one archived file
type StoredImage struct {
	Filename    string `json:"filename"`
	Hash        string `json:"hash"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// New creates the store, ensuring the directory exists
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	return &Store{
		dir: dir,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// DownloadAndStore fetches an image URL and writes it to the store
func (s *Store) DownloadAndStore(ctx context.Context, url string) (*StoredImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	ext := extFromContentType(resp.Header.Get("Content-Type"))
	if ext == "" {
		ext = extFromURL(url)
	}

	return s.Put(data, ext)
}

// Put writes image bytes to the store. Identical bytes always produce the
// same content hash, though filenames differ by timestamp.
func (s *Store) Put(data []byte, ext string) (*StoredImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if ext == "" {
		ext = "png"
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	filename := fmt.Sprintf("%s_%d.%s", hash[:12], time.Now().UnixNano(), ext)

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	return &StoredImage{
		Filename:    filename,
		Hash:        hash,
		ContentType: contentTypeFromExt(ext),
		Size:        int64(len(data)),
	}, nil
}

// Open returns a reader for an archived file. Only filenames produced by
// Put are accepted; anything else (including path separators) is rejected.
func (s *Store) Open(filename string) (io.ReadCloser, string, error) {
	if !storedName.MatchString(filename) {
		return nil, "", fmt.Errorf("invalid image filename %q", filename)
	}

	file, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("image %q not found", filename)
		}
		return nil, "", fmt.Errorf("open image: %w", err)
	}

	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return file, contentTypeFromExt(ext), nil
}

func extFromContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return "png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return "jpg"
	case strings.HasPrefix(contentType, "image/webp"):
		return "webp"
	case strings.HasPrefix(contentType, "image/gif"):
		return "gif"
	default:
		return ""
	}
}

func extFromURL(url string) string {
	clean := url
	if idx := strings.IndexAny(clean, "?#"); idx >= 0 {
		clean = clean[:idx]
	}

	switch strings.ToLower(filepath.Ext(clean)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpg"
	case ".webp":
		return "webp"
	case ".gif":
		return "gif"
	default:
		return ""
	}
}

func contentTypeFromExt(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
