package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local хранит файлы на диске, раздаются статикой по baseURL
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Upload(_ context.Context, obj Object) (string, error) {
	if err := validKey(obj.Key); err != nil {
		return "", err
	}

	fullPath := filepath.Join(l.root, filepath.FromSlash(obj.Key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("ошибка при создании директории: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("ошибка при создании файла: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, obj.Reader); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("ошибка при сохранении файла: %w", err)
	}

	return l.baseURL + "/" + obj.Key, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка при удалении файла: %w", err)
	}
	return nil
}
