package entity

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ImageSource источник изображения
type ImageSource string

const (
	SourceCamera  ImageSource = "camera"  // Съёмка камерой
	SourceGallery ImageSource = "gallery" // Выбор из галереи
)

// Valid сообщает, известен ли источник
func (s ImageSource) Valid() bool {
	return s == SourceCamera || s == SourceGallery
}

// DefaultImageMimeType тип изображения, если пикер его не сообщил
const DefaultImageMimeType = "image/jpeg"

// ImageDescriptor ссылка на временный локальный файл, которым владеет пикер.
type ImageDescriptor struct {
	URI      string // file:// URI или путь к файлу
	MimeType string // MIME-тип изображения
	FileName string // исходное имя файла
}

// Normalize проверяет дескриптор и заполняет пустые поля значениями по умолчанию.
func (d ImageDescriptor) Normalize() (ImageDescriptor, error) {
	if strings.TrimSpace(d.URI) == "" {
		return ImageDescriptor{}, ErrEmptyImageURI
	}
	if d.MimeType == "" {
		d.MimeType = DefaultImageMimeType
	}
	if d.FileName == "" {
		d.FileName = filepath.Base(d.Path())
	}
	return d, nil
}

// Path возвращает путь к файлу в локальной файловой системе.
func (d ImageDescriptor) Path() string {
	if strings.HasPrefix(d.URI, "file://") {
		if u, err := url.Parse(d.URI); err == nil {
			return u.Path
		}
	}
	return d.URI
}
