package errata

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// OpenDB opens the sqlite database at path with the naming conventions the
// queries in this package rely on.
func OpenDB(path string, debugSQL bool) (*gorm.DB, error) {
	logMode := gormLogger.Silent
	if debugSQL {
		logMode = gormLogger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormLogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(Models()...)
	if err != nil {
		return fmt.Errorf("could not migrate database: %w", err)
	}
	return nil
}

// Store runs ingestion and queries against the errata tables.
type Store struct {
	DB *gorm.DB

	// IsConflict classifies insert errors as concurrent write conflicts.
	IsConflict ConflictFunc
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:         db,
		IsConflict: IsUniqueViolation,
	}
}

func (s *Store) insert(db *gorm.DB, value any) error {
	err := db.Create(value).Error
	if err == nil {
		return nil
	}
	isConflict := s.IsConflict
	if isConflict == nil {
		isConflict = IsUniqueViolation
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %w", ErrStaleWrite, err)
	}
	return err
}
