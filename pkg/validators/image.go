package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNoFile              = errors.New("no file provided")
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type. Please upload PNG/JPG/JPEG")
)

const maxFileNameSize = 200

// AllowedImageExtensions is the default set of accepted extensions
var AllowedImageExtensions = []string{"png", "jpg", "jpeg"}

var allowedMimes = []string{"image/png", "image/jpeg"}

// ImageValidator checks the name, size and content of an uploaded image and
// returns its bytes. The returned code is the HTTP status to respond with
// when err isn't nil
func ImageValidator(fh *multipart.FileHeader, maxSize int64, allowedExt []string) (int, []byte, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	if !HasAllowedExtension(fh.Filename, allowedExt) {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if maxSize > 0 && fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	if len(data) == 0 {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	// The extension is easy to spoof so check the actual content too
	mime := mimetype.Detect(data)
	if !slices.ContainsFunc(allowedMimes, mime.Is) {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	return 0, data, nil
}

func HasAllowedExtension(name string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = AllowedImageExtensions
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}

	return slices.Contains(allowed, ext)
}
