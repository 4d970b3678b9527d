package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/aimoney/aimoney-api/utils"
)

// ErrImageNotFound is returned when a locally stored image does not exist
var ErrImageNotFound = errors.New("image not found")

// UploadedImage describes a stored upload
type UploadedImage struct {
	Key      string `json:"-"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// ImageService validates and stores uploaded images
type ImageService interface {
	// UploadImage validates the file and stores it under folder
	UploadImage(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (*UploadedImage, error)
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// NewS3ImageService creates an image service backed by a bucket
func NewS3ImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (*UploadedImage, error) {
	mimeType, ext, err := utils.ValidateImageFile(fileHeader)
	if err != nil {
		return nil, err
	}

	key := utils.GenerateObjectKey(folder, ext)

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := s.s3Service.UploadFile(ctx, key, mimeType, file); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &UploadedImage{Key: key, URL: s.s3Service.PublicURL(key), FileName: path.Base(key)}, nil
}

// LocalImageService stores images in a directory served by the API itself
type LocalImageService struct {
	dir     string
	baseURL string
}

// NewLocalImageService stores files under dir; URLs are baseURL/<folder>/<file>
func NewLocalImageService(dir, baseURL string) *LocalImageService {
	return &LocalImageService{dir: dir, baseURL: baseURL}
}

// UploadImage validates and writes an image file to disk
func (s *LocalImageService) UploadImage(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (*UploadedImage, error) {
	_, ext, err := utils.ValidateImageFile(fileHeader)
	if err != nil {
		return nil, err
	}

	key := utils.GenerateObjectKey(folder, ext)
	if err := utils.SaveUploadedFile(fileHeader, s.dir, key); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	return &UploadedImage{Key: key, URL: s.baseURL + "/" + key, FileName: path.Base(key)}, nil
}

// Path resolves a stored image to its file on disk
func (s *LocalImageService) Path(folder, filename string) (string, error) {
	if _, err := utils.SanitizeFolder(folder); err != nil || folder == "" || !utils.IsSafeFileName(filename) {
		return "", ErrImageNotFound
	}

	fullPath := filepath.Join(s.dir, folder, filename)
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		return "", ErrImageNotFound
	}
	return fullPath, nil
}
