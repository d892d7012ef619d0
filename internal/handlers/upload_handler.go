package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gomoldova-backend/internal/storage"
)

const maxUploadSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func UploadFile(store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, ok := saveImage(c, store, "uploads")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// saveImage сохраняет файл из поля "file". При ошибке ответ уже отправлен
func saveImage(c *gin.Context, store storage.Storage, prefix string) (string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не найден"})
		return "", false
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Файл слишком большой"})
		return "", false
	}

	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поддерживаются только изображения JPEG, PNG и WebP"})
		return "", false
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не удалось прочитать файл"})
		return "", false
	}
	defer src.Close()

	url, err := store.Upload(c.Request.Context(), storage.Object{
		Key:         storage.NewKey(prefix, file.Filename, time.Now()),
		Reader:      src,
		Size:        file.Size,
		ContentType: contentType,
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при сохранении файла"})
		return "", false
	}
	return url, true
}
