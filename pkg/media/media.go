package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest photo accepted for upload.
const MaxImageSize = 20 << 20

// SupportedTypes lists the image content types accepted for upload.
var SupportedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is a photo read from disk and checked for upload.
type Image struct {
	FileName    string
	ContentType string
	Size        int64
	SHA256      string
	Data        []byte
}

// IsSupportedType reports whether contentType is an accepted image type.
func IsSupportedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, t := range SupportedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// DetectContentType sniffs the content type from the leading bytes of data.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadImage reads the photo at path and rejects files that are empty, too
// large, or not an image.
func LoadImage(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if info.Size() > MaxImageSize {
		return nil, fmt.Errorf("%s is %d bytes, the limit is %d", path, info.Size(), MaxImageSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ct := DetectContentType(data)
	if !IsSupportedType(ct) {
		return nil, fmt.Errorf("%s is not a supported image (detected %s)", path, ct)
	}
	return &Image{
		FileName:    filepath.Base(path),
		ContentType: strings.SplitN(ct, ";", 2)[0],
		Size:        int64(len(data)),
		SHA256:      Checksum(data),
		Data:        data,
	}, nil
}
