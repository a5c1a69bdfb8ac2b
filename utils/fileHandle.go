package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fillop/config"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds the upload size limit")
	ErrFileType       = errors.New("file type is not allowed")
	ErrInvalidDataURL = errors.New("invalid data URL")
)

// Accepted mime types per upload kind.
var (
	ImageTypes    = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml"}
	DocumentTypes = []string{
		"application/pdf",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/zip",
		"application/x-ole-storage",
	}
	VideoTypes = []string{"video/mp4", "video/webm", "video/quicktime", "video/x-matroska"}
)

func maxUploadBytes() int64 {
	mb := 20
	if config.AppConfig != nil && config.AppConfig.MaxUploadMB > 0 {
		mb = config.AppConfig.MaxUploadMB
	}
	return int64(mb) << 20
}

func uploadDir() string {
	if config.AppConfig != nil && config.AppConfig.UploadDir != "" {
		return config.AppConfig.UploadDir
	}
	return "./public/uploads"
}

// SaveUploadedFile stores a multipart upload under destDir with a generated
// name and returns its public URL.
func SaveUploadedFile(file *multipart.FileHeader, destDir string, allowed []string) (string, error) {
	if file.Size > maxUploadBytes() {
		return "", ErrFileTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes()+1))
	if err != nil {
		return "", err
	}
	return saveBytes(data, destDir, allowed)
}

// SaveDataURL decodes a "data:<mime>;base64,<payload>" string and stores it
// like SaveUploadedFile.
func SaveDataURL(dataURL, destDir string, allowed []string) (string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", ErrInvalidDataURL
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxUploadBytes()+3 {
		return "", ErrFileTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return saveBytes(data, destDir, allowed)
}

func saveBytes(data []byte, destDir string, allowed []string) (string, error) {
	if int64(len(data)) > maxUploadBytes() {
		return "", ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if len(allowed) > 0 && !mimetype.EqualsAny(mt.String(), allowed...) {
		return "", fmt.Errorf("%w: %s", ErrFileType, mt.String())
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	newFilename := uuid.NewString() + mt.Extension()
	dst, err := os.Create(filepath.Join(destDir, newFilename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return GetFileURL(filepath.Base(destDir), newFilename), nil
}

func GetFileURL(folder, name string) string {
	if name == "" {
		return ""
	}
	return "/uploads/" + folder + "/" + name
}

// StoreAsset normalizes a file field that may arrive as a multipart part or as
// a base64 data URL inside JSON. Plain URLs are returned untouched.
func StoreAsset(c *fiber.Ctx, field, value, folder string, allowed []string) (string, error) {
	dest := filepath.Join(uploadDir(), folder)
	if file, err := c.FormFile(field); err == nil && file != nil {
		return SaveUploadedFile(file, dest, allowed)
	}
	if strings.HasPrefix(value, "data:") {
		return SaveDataURL(value, dest, allowed)
	}
	return strings.TrimSpace(value), nil
}
