package handlers

import (
	"errors"
	"net/http"

	"pcprompts/internal/apperr"
	"pcprompts/internal/services"

	"github.com/gin-gonic/gin"
)

// receiveImage reads the multipart field and stores it through the upload service.
// On failure the error is already recorded on c.
func receiveImage(c *gin.Context, uploads *services.UploadService, field, kind string, maxSize int64) (string, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, apperr.TooLarge("Arquivo muito grande"))
		} else {
			fail(c, apperr.Validation("Selecione uma imagem para enviar"))
		}
		return "", false
	}

	path, err := uploads.SaveImage(header, kind, maxSize)
	if err != nil {
		fail(c, err)
		return "", false
	}
	return path, true
}
