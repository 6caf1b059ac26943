package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/storage"
)

const imagesPath = "/api/images/"

type ImageHandler struct {
	images    storage.ObjectStore
	publicURL string
	maxBytes  int64
	now       func() time.Time
}

// UploadImage stores an image attachment and returns its durable URL
func (h *ImageHandler) UploadImage(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		serverError(c, err)
		return
	}
	defer file.Close()

	data, contentType, err := storage.SniffImage(file, h.maxBytes)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
		return
	case errors.Is(err, storage.ErrNotImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "File is not an image"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	name := storage.ImageName(sess.UserID, header.Filename, h.now())
	info, err := h.images.Put(c.Request.Context(), name, contentType, bytes.NewReader(data))
	if err != nil {
		serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":         strings.TrimSuffix(h.publicURL, "/") + imagesPath + info.Name,
		"contentType": info.ContentType,
		"size":        info.Size,
	})
}

// GetImage streams a stored image
func (h *ImageHandler) GetImage(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")

	obj, err := h.images.Get(c.Request.Context(), name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	case err != nil:
		serverError(c, err)
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, obj.Info.Size, obj.Info.ContentType, obj, map[string]string{
		"Cache-Control":           "public, max-age=31536000, immutable",
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'none'; sandbox",
	})
}
