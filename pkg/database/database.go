package database

import (
	"errors"
	"fmt"
	"strings"

	"NetworkingServer/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// dialector 按驱动选择 gorm 方言
func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverPostgres, "postgresql", "":
		return postgres.Open(dsn), nil
	case config.DriverSQLite, "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Build 基于配置创建 gorm 连接
//   - TranslateError 打开，唯一键冲突统一翻译为 gorm.ErrDuplicatedKey
//   - ReadOnlyDSNs 非空时注册 dbresolver，读请求走从库
//   - 连接池参数作用于主库与所有从库
func Build(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("database dsn is empty")
	}

	dial, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if len(cfg.ReadOnlyDSNs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.ReadOnlyDSNs))
		for _, dsn := range cfg.ReadOnlyDSNs {
			d, err := dialector(cfg.Driver, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, d)
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})
		if cfg.MaxOpenConns > 0 {
			resolver = resolver.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			resolver = resolver.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxIdle > 0 {
			resolver = resolver.SetConnMaxIdleTime(cfg.ConnMaxIdle)
		}
		if cfg.ConnMaxLife > 0 {
			resolver = resolver.SetConnMaxLifetime(cfg.ConnMaxLife)
		}
		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("register dbresolver: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
