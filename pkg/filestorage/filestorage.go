package filestorage

import "io"

// FileStorageInterface определяет контракт для сервиса хранения файлов.
// prefix группирует файлы по назначению (equipment_photo, testing_docs...).
type FileStorageInterface interface {
	Save(file io.Reader, originalFileName string, prefix string) (filePath string, err error)
	Delete(filePath string) error
}
