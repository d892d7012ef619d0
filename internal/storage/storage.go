package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object загружаемый файл
type Object struct {
	Key         string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Storage хранилище файлов (аватары, логотипы компаний)
type Storage interface {
	Upload(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey ключ вида prefix/2006/01/02/<uuid><ext>
func NewKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(now.Format("2006/01/02"), name)
	}
	return path.Join(prefix, now.Format("2006/01/02"), name)
}

// validKey запрещает выход за пределы корня хранилища
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("недопустимый ключ файла: %q", key)
	}
	return nil
}
