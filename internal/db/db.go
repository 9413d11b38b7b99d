package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SysArcDCMS/dcms-scheduler/internal/config"
	"github.com/SysArcDCMS/dcms-scheduler/internal/infra/repository"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := ensureConstraints(db); err != nil {
		return nil, err
	}

	return db, nil
}

// ensureConstraints installs the storage-level guarantees the commit path
// relies on when two instances race past their locks.
func ensureConstraints(db *gorm.DB) error {
	if err := db.Exec(fmt.Sprintf(`
        CREATE UNIQUE INDEX IF NOT EXISTS %s
        ON appointments (patient_key)
        WHERE status = 'booked'
    `, repository.ConstraintActivePatient)).Error; err != nil {
		return fmt.Errorf("create active patient index: %w", err)
	}

	// btree_gist needs elevated rights on some managed databases; advisory
	// locks still serialise commits without it.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		log.Warn().Err(err).Msg("btree_gist unavailable, overlap exclusion constraint skipped")
		return nil
	}

	if err := db.Exec(fmt.Sprintf(`
        DO $$
        BEGIN
            IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[1]s') THEN
                ALTER TABLE appointments
                ADD CONSTRAINT %[1]s
                EXCLUDE USING gist (
                    date WITH =,
                    int4range(start_minute, end_minute) WITH &&
                ) WHERE (status = 'booked');
            END IF;
        END
        $$;
    `, repository.ConstraintNoOverlap)).Error; err != nil {
		log.Warn().Err(err).Msg("overlap exclusion constraint not installed")
	}

	return nil
}
