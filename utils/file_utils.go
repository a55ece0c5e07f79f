package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Maximum upload size (10MB)
	MaxUploadSize  = 10 * 1024 * 1024
	thumbnailWidth = 320
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileTypeInvalid = errors.New("unsupported file type")

	imageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	documentExts = map[string]bool{
		".pdf": true,
	}
)

// UploadDir returns the root directory for stored files
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// StoredFile describes a saved upload by its public URLs
type StoredFile struct {
	URL          string
	ThumbnailURL string
}

// IsImage reports whether filename has an image extension
func IsImage(filename string) bool {
	return imageExts[strings.ToLower(filepath.Ext(filename))]
}

// ValidateUpload checks size and accepts images and PDF documents
func ValidateUpload(filename string, size int64) error {
	if size > MaxUploadSize {
		return fmt.Errorf("%w: maximum size is %d bytes", ErrFileTooLarge, MaxUploadSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] && !documentExts[ext] {
		return fmt.Errorf("%w: allowed formats are jpg, jpeg, png, gif, pdf", ErrFileTypeInvalid)
	}
	return nil
}

// SaveUpload stores a multipart file under <UploadDir>/<subDir> with a random
// name. Images also get a thumbnail next to the original.
func SaveUpload(fh *multipart.FileHeader, subDir string) (*StoredFile, error) {
	if err := ValidateUpload(fh.Filename, fh.Size); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	return SaveBytes(data, fh.Filename, subDir)
}

// SaveBytes writes data under <UploadDir>/<subDir> and returns its URLs
func SaveBytes(data []byte, originalName, subDir string) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext
	subDir = filepath.Clean(strings.TrimPrefix(subDir, "/"))

	dir := filepath.Join(UploadDir(), subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	stored := &StoredFile{URL: fileURL(subDir, name)}
	if IsImage(originalName) {
		thumbName, err := writeThumbnail(data, dir, name)
		if err != nil {
			// the upload itself is kept
			return stored, fmt.Errorf("thumbnail: %w", err)
		}
		stored.ThumbnailURL = fileURL(subDir, thumbName)
	}
	return stored, nil
}

func writeThumbnail(data []byte, dir, name string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	thumbName := "thumb_" + strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	if err := imaging.Save(thumb, filepath.Join(dir, thumbName), imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return thumbName, nil
}

func fileURL(subDir, name string) string {
	return "/uploads/" + filepath.ToSlash(filepath.Join(subDir, name))
}

// LocalPath maps an /uploads URL back to its file on disk
func LocalPath(url string) (string, error) {
	rel := strings.TrimPrefix(url, "/uploads/")
	if rel == url {
		return "", errors.New("not an upload URL")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.New("invalid upload path")
	}
	return filepath.Join(UploadDir(), clean), nil
}
