package googlefit

import (
	"os"
)

// FileSystem abstracts the file operations of the account store for testing
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm int) error
	MkdirAll(path string, perm int) error
}

// OSFileSystem is a concrete implementation of FileSystem using the OS
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS-based file system
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (fs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (fs *OSFileSystem) WriteFile(path string, data []byte, perm int) error {
	return os.WriteFile(path, data, os.FileMode(perm))
}

func (fs *OSFileSystem) MkdirAll(path string, perm int) error {
	return os.MkdirAll(path, os.FileMode(perm))
}
