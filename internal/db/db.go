package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pcprompts/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Postgres is the production target;
// sqlite serves local development and tests.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(log), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// a single connection keeps in-memory databases alive and avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// MemoryDSN returns a fresh, isolated in-memory sqlite database with foreign keys on.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Specialty{},
		&models.User{},
		&models.Prompt{},
		&models.Discussion{},
		&models.Post{},
		&models.Comment{},
		&models.PromptLike{},
		&models.CommentLike{},
	)
}

// Seed inserts the initial specialties when the table is empty.
func Seed(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Specialty{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug("specialties already seeded, skipping")
		return nil
	}

	specialties := []models.Specialty{
		{Name: "Investigação", Description: "Apoio a inquéritos, análise de vínculos e diligências", Color: "#1e3a8a"},
		{Name: "Inteligência", Description: "Produção de conhecimento e análise de dados", Color: "#0f766e"},
		{Name: "Cartório", Description: "Redação de peças, ofícios e despachos", Color: "#7c3aed"},
		{Name: "Perícia", Description: "Laudos, quesitos e documentação técnica", Color: "#b45309"},
		{Name: "Atendimento", Description: "Registro de ocorrências e atendimento ao público", Color: "#be123c"},
		{Name: "Gestão", Description: "Planejamento, relatórios e rotinas administrativas", Color: "#334155"},
	}
	for _, s := range specialties {
		if err := db.Create(&s).Error; err != nil {
			log.Warn("failed to create specialty", zap.String("name", s.Name), zap.Error(err))
		}
	}
	log.Info("initial specialties created", zap.Int("count", len(specialties)))
	return nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
