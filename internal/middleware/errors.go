package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pcprompts/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// classify maps any handler error onto a status, a client message and optional details.
func classify(err error) (int, string, any) {
	if e, ok := apperr.As(err); ok {
		details := e.Details
		if details == nil && e.Err != nil {
			details = e.Err.Error()
		}
		return e.Status(), e.Message, details
	}

	var (
		maxBytes  *http.MaxBytesError
		syntax    *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		validErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "Requisição muito grande", fmt.Sprintf("limite de %d bytes", maxBytes.Limit)
	case errors.As(err, &validErrs):
		fields := make([]fieldError, 0, len(validErrs))
		for _, fe := range validErrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		return http.StatusBadRequest, "Dados inválidos", fields
	case errors.As(err, &syntax), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "JSON inválido", err.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Recurso não encontrado", nil
	}
	return http.StatusInternalServerError, "Erro interno do servidor", err.Error()
}

// ErrorHandler renders the last error recorded with c.Error as {error, details?}.
// details are omitted in production.
func ErrorHandler(log *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, message, details := classify(err)

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}

		body := gin.H{"error": message}
		if !production && details != nil {
			body["details"] = details
		}
		c.JSON(status, body)
	}
}

// Recovery turns panics into the same 500 envelope.
func Recovery(log *zap.Logger, production bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path))
		body := gin.H{"error": "Erro interno do servidor"}
		if !production {
			body["details"] = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// BodyLimit caps request bodies. Multipart uploads get their own, larger ceiling.
func BodyLimit(jsonMax, multipartMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := jsonMax
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				limit = multipartMax
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
