package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
)

// UploadsURLPrefix es la ruta pública bajo la que el router sirve UPLOAD_DIR.
const UploadsURLPrefix = "/uploads/"

// MaxProfilePicBytes limita el tamaño de la foto de perfil (5MB).
const MaxProfilePicBytes int64 = 5 << 20

var imageTypes = map[string][]string{
	"image/png":  {".png"},
	"image/jpeg": {".jpg", ".jpeg"},
}

// SaveImage guarda el archivo multipart `field` en uploadDir/subdir con nombre uuid.
// Devuelve la ruta pública ("/uploads/<subdir>/<uuid>.<ext>") o "" si no vino archivo.
// El request ya debe haber pasado por ParseMultipartForm.
func SaveImage(r *http.Request, field, uploadDir, subdir string, maxBytes int64) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", httperrors.ErrBadRequest.WithDetail("invalid multipart file").WithCause(err)
	}
	defer file.Close()

	if header.Size > maxBytes {
		return "", httperrors.ErrBodyTooLarge.WithDetail(fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}

	// Tipo real por contenido, no por el header del cliente.
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	ctype := http.DetectContentType(head[:n])
	exts, ok := imageTypes[ctype]
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !ok || !contains(exts, ext) {
		return "", httperrors.ErrBadRequest.WithMessage("Invalid file type")
	}

	dir := filepath.Join(uploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", httperrors.ErrInternalServerError.WithCause(err)
	}
	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", httperrors.ErrInternalServerError.WithCause(err)
	}

	_, err = io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(file, maxBytes)))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", httperrors.ErrInternalServerError.WithCause(err)
	}
	return path.Join(UploadsURLPrefix, subdir, name), nil
}

// RemoveUpload borra un archivo previamente guardado por SaveImage.
// URLs externas (p.ej. fotos de Google) se ignoran.
func RemoveUpload(uploadDir, publicPath string) error {
	if !strings.HasPrefix(publicPath, UploadsURLPrefix) {
		return nil
	}
	rel := path.Clean(strings.TrimPrefix(publicPath, UploadsURLPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(uploadDir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
