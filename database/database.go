package database

import (
	"fillop/config"
	"fillop/logger"
	"fillop/models"
	courseModels "fillop/models/course"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the database selected by DB_DRIVER, tunes the pool and stores
// the handle in Database. Migrations are run separately by Migrate.
func ConnectDb(cfg *config.Config) error {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return err
	}

	gormCfg := &gorm.Config{}
	if cfg.AppMode != "development" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	Database = DbInstance{Db: db}
	logger.Log.Info("database connected", "driver", cfg.DBDriver, "name", cfg.DBName)
	return nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.DBName), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Migrate performs database migrations
func Migrate(db *gorm.DB) error {
	logger.Log.Info("running migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.OTP{},
		&models.LoginHistory{},
		&models.Article{},
		&models.Service{},
		&courseModels.Category{},
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.LearningPath{},
		&courseModels.LearningPathCourse{},
		&courseModels.Assessment{},
		&courseModels.Question{},
		&courseModels.Answer{},
		&courseModels.AssessmentAttempt{},
		&courseModels.Enrollment{},
		&courseModels.ModuleCompletion{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Info("migrations completed")
	return nil
}

// ConnectMemory opens a private in-memory SQLite database, migrates it and
// installs it as Database. name keeps parallel test databases apart.
func ConnectMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: a shared-cache memory database locks tables per connection.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	Database = DbInstance{Db: db}
	return db, nil
}
