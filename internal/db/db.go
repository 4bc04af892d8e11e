package db

import (
	"errors"
	"fmt"

	"digitalaxis/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config 所有连接共用的 gorm 配置。开启错误翻译，唯一索引冲突返回 gorm.ErrDuplicatedKey
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}
}

// Connect 连接 PostgreSQL 并完成迁移
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("connect database: empty DSN")
	}

	conn, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return conn, nil
}

// Migrate 建表/补字段
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Comment{},
		&models.Subscriber{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
