// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"pcprompts/internal/auth"
	"pcprompts/internal/db"
	"pcprompts/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB returns a migrated, isolated in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite", db.MemoryDSN(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// CreateUser inserts an active user with password "abcdef".
func CreateUser(t testing.TB, gdb *gorm.DB, email string, mutate ...func(*models.User)) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("abcdef")
	require.NoError(t, err)
	u := &models.User{
		Email:    email,
		Password: hash,
		Name:     auth.NameFromEmail(email),
		IsActive: true,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, gdb.Create(u).Error)
	if !u.IsActive {
		require.NoError(t, gdb.Model(u).Update("is_active", false).Error)
	}
	return u
}

func CreatePrompt(t testing.TB, gdb *gorm.DB, authorID uint, title string) *models.Prompt {
	t.Helper()
	p := &models.Prompt{
		Title:      title,
		Content:    "Conteúdo de " + title,
		AuthorID:   authorID,
		Tags:       []string{"teste"},
		IsPublic:   true,
		IsApproved: true,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func CreateComment(t testing.TB, gdb *gorm.DB, authorID, promptID uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PromptID:   &promptID,
		AuthorID:   authorID,
		Content:    content,
		IsApproved: true,
	}
	require.NoError(t, gdb.Create(c).Error)
	return c
}
