package utils

import (
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = bcrypt.DefaultCost

// allowedImageTypes — допустимые расширения загружаемых изображений и их MIME-типы.
var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ImageExtension returns the lower-cased extension of filename and whether
// it is an accepted image type.
func ImageExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedImageTypes[ext]
	return ext, ok
}

// ContentTypeForExtension returns the MIME type for an accepted extension,
// or application/octet-stream.
func ContentTypeForExtension(ext string) string {
	if ct, ok := allowedImageTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}
