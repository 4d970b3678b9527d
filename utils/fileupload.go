package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// MaxFileSize is 5MB in bytes
	MaxFileSize = 5 * 1024 * 1024
	// DefaultUploadFolder is used when the client does not name one
	DefaultUploadFolder = "reviews"
)

// allowedImageTypes maps detected MIME types to the extension used in object keys
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile checks size and sniffs the content type of the upload.
// It returns the detected MIME type and the extension to store it under.
func ValidateImageFile(fileHeader *multipart.FileHeader) (mimeType, ext string, err error) {
	if fileHeader.Size > MaxFileSize {
		return "", "", &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType = strings.SplitN(detected.String(), ";", 2)[0]
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return "", "", &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only JPEG, PNG, GIF and WEBP images are allowed",
		}
	}

	return mimeType, ext, nil
}

// SanitizeFolder returns the folder to store an upload under
func SanitizeFolder(folder string) (string, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		return DefaultUploadFolder, nil
	}
	if !folderPattern.MatchString(folder) {
		return "", &FileUploadError{
			Code:    "INVALID_FOLDER",
			Message: "Folder may only contain lowercase letters, digits, '-' and '_'",
		}
	}
	return folder, nil
}

// GenerateObjectKey builds a collision-resistant key: <folder>/<unix-millis>_<random>.<ext>
func GenerateObjectKey(folder, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s/%d_%s.%s", folder, time.Now().UnixMilli(), random, ext)
}

// SaveUploadedFile writes the upload to uploadDir/key, creating the folder if needed
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir, key string) (err error) {
	fullPath := filepath.Join(uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

// IsSafeFileName reports whether name is a single path element produced by GenerateObjectKey
func IsSafeFileName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}
