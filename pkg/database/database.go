package database

import (
	"fmt"
	"time"

	"studysync_backend/internal/config"
	"studysync_backend/internal/model"
	"studysync_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models 参与 AutoMigrate 的全部表
var Models = []interface{}{
	&model.User{},
	&model.Subscription{},
	&model.CheckoutSession{},
	&model.Upload{},
	&model.FlashcardSet{},
	&model.Flashcard{},
	&model.Quiz{},
	&model.Question{},
	&model.QuizAttempt{},
	&model.AttemptAnswer{},
	&model.BetaFeedback{},
}

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(&cfg.Database)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Log.Info("Database connection established")

	// release 模式下仅在显式要求时迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := db.AutoMigrate(Models...); err != nil {
			return nil, err
		}
		logger.Log.Info("Database migration completed", zap.Int("tables", len(Models)))
	}

	return db, nil
}
