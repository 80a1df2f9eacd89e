package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"pcprompts/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UploadAvatars = "avatars"
	UploadIcons   = "icons"

	// PublicUploadPrefix is where the router serves UploadService.dir.
	PublicUploadPrefix = "/uploads"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// UploadService stores user images on local disk.
type UploadService struct {
	dir string
	log *zap.Logger
}

func NewUploadService(dir string, log *zap.Logger) *UploadService {
	return &UploadService{dir: dir, log: log}
}

func (s *UploadService) Dir() string { return s.dir }

// SaveImage validates and stores an uploaded image under <dir>/<kind>/ and
// returns its public path.
func (s *UploadService) SaveImage(fh *multipart.FileHeader, kind string, maxSize int64) (string, error) {
	if fh.Size > maxSize {
		return "", apperr.TooLarge(fmt.Sprintf("Arquivo muito grande. Tamanho máximo: %dMB", maxSize>>20))
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.Validation("Não foi possível ler o arquivo enviado")
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", apperr.Validation("Não foi possível identificar o tipo do arquivo")
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return "", apperr.Validation("Apenas imagens JPEG, PNG, GIF ou WebP são permitidas")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Internal("Erro ao processar arquivo", err)
	}

	dir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Internal("Erro ao salvar arquivo", err)
	}

	name := uuid.NewString() + mtype.Extension()
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", apperr.Internal("Erro ao salvar arquivo", err)
	}
	defer dst.Close()

	// the declared size can lie; never write past the ceiling
	n, err := io.Copy(dst, io.LimitReader(src, maxSize+1))
	if err != nil {
		return "", apperr.Internal("Erro ao salvar arquivo", err)
	}
	if n > maxSize {
		dst.Close()
		os.Remove(filepath.Join(dir, name))
		return "", apperr.TooLarge(fmt.Sprintf("Arquivo muito grande. Tamanho máximo: %dMB", maxSize>>20))
	}

	return PublicUploadPrefix + "/" + kind + "/" + name, nil
}

// Remove deletes a previously stored file given its public path. Paths outside the
// upload prefix (external avatars, empty values) are ignored.
func (s *UploadService) Remove(publicPath string) {
	rel, ok := strings.CutPrefix(publicPath, PublicUploadPrefix+"/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove upload", zap.String("path", publicPath), zap.Error(err))
	}
}
