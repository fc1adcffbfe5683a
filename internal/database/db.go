package database

import (
	"fmt"
	"time"

	"pos-backoffice/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options controls the connection pool owned by the process entry point.
type Options struct {
	MaxOpenConns int
	Attempts     int
	RetryDelay   time.Duration
}

// Connect opens MySQL through GORM, waiting for the database to become ready.
// The returned handle is injected into every component that needs storage.
func Connect(dsn string, opts Options, log zerolog.Logger) (*gorm.DB, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var db *gorm.DB
	var err error
	for i := 0; i < opts.Attempts; i++ {
		db, err = Open(mysql.Open(dsn), log)
		if err == nil {
			break
		}
		log.Warn().Err(err).Msgf("failed to connect to database, retrying in %s (%d/%d)", opts.RetryDelay, i+1, opts.Attempts)
		time.Sleep(opts.RetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", opts.Attempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns / 2)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("connected to MySQL")
	return db, nil
}

// Open wraps gorm.Open with the settings every dialect shares.
// TranslateError maps driver constraint errors onto gorm.ErrForeignKeyViolated and friends.
func Open(dialector gorm.Dialector, log zerolog.Logger) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
}

// NewGormLogger reports slow queries and SQL errors through log. Lookups that
// find nothing are an expected outcome and stay quiet.
func NewGormLogger(log zerolog.Logger) logger.Interface {
	return logger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn().Msgf(format, args...)
}

// Migrate syncs the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Customer{},
		&models.Product{},
		&models.Ticket{},
		&models.Sale{},
		&models.SaleItem{},
		&models.InventoryTransaction{},
	)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
