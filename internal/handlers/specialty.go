package handlers

import (
	"context"
	"net/http"
	"strings"

	"pcprompts/internal/apperr"
	"pcprompts/internal/db"
	"pcprompts/internal/models"
	"pcprompts/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SpecialtyHandler struct {
	db          *gorm.DB
	uploads     *services.UploadService
	maxIconSize int64
}

func NewSpecialtyHandler(gdb *gorm.DB, uploads *services.UploadService, maxIconSize int64) *SpecialtyHandler {
	return &SpecialtyHandler{db: gdb, uploads: uploads, maxIconSize: maxIconSize}
}

type specialtyRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
}

// fillPromptCounts counts public, approved prompts per specialty.
func (h *SpecialtyHandler) fillPromptCounts(ctx context.Context, specialties []models.Specialty) error {
	ids := idsOf(specialties, func(s *models.Specialty) uint { return s.ID })
	visible := h.db.Where("is_public = ? AND is_approved = ?", true, true)
	counts, err := services.CountBy(ctx, visible, &models.Prompt{}, "specialty_id", ids)
	if err != nil {
		return err
	}
	for i := range specialties {
		specialties[i].PromptsCount = counts[specialties[i].ID]
	}
	return nil
}

// List GET /api/specialties
func (h *SpecialtyHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var specialties []models.Specialty
	if err := h.db.WithContext(ctx).Order("name ASC, id ASC").Find(&specialties).Error; err != nil {
		fail(c, apperr.Internal("Erro ao listar especialidades", err))
		return
	}
	if err := h.fillPromptCounts(ctx, specialties); err != nil {
		fail(c, apperr.Internal("Erro ao listar especialidades", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialties": specialties})
}

func (h *SpecialtyHandler) find(c *gin.Context) (*models.Specialty, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var s models.Specialty
	if err := h.db.WithContext(c.Request.Context()).First(&s, id).Error; err != nil {
		fail(c, notFoundOr(err, "Especialidade não encontrada"))
		return nil, false
	}
	return &s, true
}

// Get GET /api/specialties/:id
func (h *SpecialtyHandler) Get(c *gin.Context) {
	s, ok := h.find(c)
	if !ok {
		return
	}
	list := []models.Specialty{*s}
	if err := h.fillPromptCounts(c.Request.Context(), list); err != nil {
		fail(c, apperr.Internal("Erro ao carregar especialidade", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialty": list[0]})
}

func saveSpecialtyErr(err error) error {
	if db.IsDuplicateKey(err) {
		return apperr.Conflict("Já existe uma especialidade com este nome")
	}
	return apperr.Internal("Erro ao salvar especialidade", err)
}

// Create POST /api/specialties (admin)
func (h *SpecialtyHandler) Create(c *gin.Context) {
	var req specialtyRequest
	if !bindJSON(c, &req) {
		return
	}
	s := models.Specialty{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Color:       req.Color,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&s).Error; err != nil {
		fail(c, saveSpecialtyErr(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Especialidade criada com sucesso", "specialty": s})
}

// Update PUT /api/specialties/:id (admin)
func (h *SpecialtyHandler) Update(c *gin.Context) {
	var req specialtyRequest
	if !bindJSON(c, &req) {
		return
	}
	s, ok := h.find(c)
	if !ok {
		return
	}
	s.Name = strings.TrimSpace(req.Name)
	s.Description = strings.TrimSpace(req.Description)
	s.Color = req.Color
	err := h.db.WithContext(c.Request.Context()).Model(s).Updates(map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"color":       s.Color,
	}).Error
	if err != nil {
		fail(c, saveSpecialtyErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Especialidade atualizada com sucesso", "specialty": s})
}

// Delete DELETE /api/specialties/:id (admin) - prompts keep existing without a specialty.
func (h *SpecialtyHandler) Delete(c *gin.Context) {
	s, ok := h.find(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Prompt{}).Where("specialty_id = ?", s.ID).Update("specialty_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("specialty_id = ?", s.ID).Update("specialty_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Specialty{}, s.ID).Error
	})
	if err != nil {
		fail(c, apperr.Internal("Erro ao excluir especialidade", err))
		return
	}
	h.uploads.Remove(s.Icon)
	c.JSON(http.StatusOK, gin.H{"message": "Especialidade excluída com sucesso"})
}

// UploadIcon POST /api/specialties/:id/icon (admin, multipart field "icon")
func (h *SpecialtyHandler) UploadIcon(c *gin.Context) {
	s, ok := h.find(c)
	if !ok {
		return
	}
	path, ok := receiveImage(c, h.uploads, "icon", services.UploadIcons, h.maxIconSize)
	if !ok {
		return
	}
	previous := s.Icon
	if err := h.db.WithContext(c.Request.Context()).Model(s).Update("icon", path).Error; err != nil {
		h.uploads.Remove(path)
		fail(c, apperr.Internal("Erro ao salvar ícone", err))
		return
	}
	s.Icon = path
	if previous != path {
		h.uploads.Remove(previous)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ícone atualizado com sucesso", "specialty": s})
}
