package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type Options struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	// Path is the sqlite database file.
	Path string
}

func (o Options) dialector() (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(o.Driver)) {
	case "", "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			o.User,
			o.Password,
			o.Host,
			o.Port,
			o.Name,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(SQLiteDSN(o.Path)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

// SQLiteDSN enables foreign keys and a busy timeout on a sqlite file path.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(opts Options, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", opts.Driver)

	dialector, err := opts.dialector()
	if err != nil {
		return nil, err
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, Config(gormLog))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Service{db: db, log: serviceLog}, nil
}

// Config is shared by the server and tests. Unique violations surface as
// gorm.ErrDuplicatedKey and timestamps are stored in UTC.
func Config(l gormLogger.Interface) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         l,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
