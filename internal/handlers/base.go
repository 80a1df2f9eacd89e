package handlers

import (
	"context"
	"errors"

	"pcprompts/internal/apperr"
	"pcprompts/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// fail records err for the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fail(c, err)
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		fail(c, apperr.Validation("ID inválido"))
	}
	return id, ok
}

func pageParams(c *gin.Context) utils.Pagination {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"))
}

// notFoundOr maps gorm's not-found onto a 404 with msg; anything else is internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal("Erro ao consultar banco de dados", err)
}

// paginate runs the count and the page query concurrently. base must return a fresh
// filtered chain on every call; load scopes (preloads) only apply to the page query.
func paginate(ctx context.Context, base func() *gorm.DB, p utils.Pagination, order string, dest any, load ...func(*gorm.DB) *gorm.DB) (utils.Pagination, error) {
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return base().WithContext(gctx).Count(&total).Error
	})
	g.Go(func() error {
		return base().WithContext(gctx).Scopes(load...).
			Order(order).Offset(p.Offset()).Limit(p.Limit).
			Find(dest).Error
	})
	if err := g.Wait(); err != nil {
		return p, err
	}
	return p.WithTotal(total), nil
}

func preload(relations ...string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, rel := range relations {
			tx = tx.Preload(rel)
		}
		return tx
	}
}

func idsOf[T any](items []T, id func(*T) uint) []uint {
	ids := make([]uint, 0, len(items))
	for i := range items {
		ids = append(ids, id(&items[i]))
	}
	return ids
}
