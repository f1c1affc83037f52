package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ecocambio/eco-cambio-backend/internal/apperr"
)

// MaxUploadSize caps uploaded images at 5MB.
const MaxUploadSize = 5 << 20

var uploadDir = "uploads"

// InitUploads sets the content directory and makes sure it exists.
func InitUploads(dir string) error {
	uploadDir = dir
	return os.MkdirAll(dir, 0o755)
}

// SaveUpload validates an uploaded image (JPEG/PNG by sniffed content, max
// 5MB) and persists it under the content directory as
// <userID>-<unixMillis><ext>. Returns the relative path stored on entity
// records and served under /uploads.
func SaveUpload(userID string, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", apperr.New(apperr.Validation, "El archivo supera el límite de 5MB.")
	}

	file, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "No se pudo leer el archivo.", err)
	}
	defer file.Close()

	// Sniff the real content type; the client-sent header is not trusted.
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", apperr.Wrap(apperr.Validation, "No se pudo leer el archivo.", err)
	}
	head = head[:n]

	var ext string
	switch http.DetectContentType(head) {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		return "", apperr.New(apperr.Validation, "Tipo de archivo no soportado. Solo JPEG y PNG son permitidos.")
	}

	name := fmt.Sprintf("%s-%d%s", userID, time.Now().UnixMilli(), ext)
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.Write(head); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return "uploads/" + name, nil
}

// RemoveUpload deletes a stored image. Best effort: failures are logged and
// never block the owning record's mutation.
func RemoveUpload(relPath string) {
	if relPath == "" {
		return
	}
	// Only the basename is trusted; the stored path is advisory.
	full := filepath.Join(uploadDir, filepath.Base(relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", full).Msg("failed to remove uploaded image")
	}
}
