package config

import "time"

// 支持的数据库驱动
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig 描述关系库连接与读写分离（可选）的基础参数。
// 线上默认 PostgreSQL，保留 MySQL 以兼容历史部署；sqlite 只用于本地调试和单测。
type DatabaseConfig struct {
	// 基础连接
	Driver       string        `json:"driver" yaml:"driver"`             // mysql | postgres | sqlite
	DSN          string        `json:"dsn" yaml:"dsn"`                   // 主库 DSN（必须）
	ReadOnlyDSNs []string      `json:"readOnlyDsns" yaml:"readOnlyDsns"` // 从库 DSN 列表（可为空，默认回退主库）
	MaxOpenConns int           `json:"maxOpenConns" yaml:"maxOpenConns"` // 最大打开连接数
	MaxIdleConns int           `json:"maxIdleConns" yaml:"maxIdleConns"` // 最大空闲连接数
	ConnMaxIdle  time.Duration `json:"connMaxIdle" yaml:"connMaxIdle"`   // 连接最大空闲时间
	ConnMaxLife  time.Duration `json:"connMaxLife" yaml:"connMaxLife"`   // 连接最长存活时间
	LogLevel     string        `json:"logLevel" yaml:"logLevel"`         // gorm 日志级别: silent|error|warn|info
	AutoMigrate  bool          `json:"autoMigrate" yaml:"autoMigrate"`   // 启动时是否执行 AutoMigrate
}

// DefaultDatabaseConfig 返回便于本地开发的默认配置：读写同一个 DSN。
func DefaultDatabaseConfig() DatabaseConfig {
	driver := getenvString("DB_DRIVER", DriverPostgres)

	// 优先使用环境变量 DB_DSN，其次按驱动组装
	dsn := getenvString("DB_DSN", "")
	if dsn == "" {
		dsn = buildDSN(driver)
	}

	return DatabaseConfig{
		Driver:       driver,
		DSN:          dsn,
		ReadOnlyDSNs: splitCSV(getenvString("DB_READ_DSNS", "")),
		MaxOpenConns: getenvInt("DB_MAX_OPEN_CONNS", 50),
		MaxIdleConns: getenvInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxIdle:  10 * time.Minute,
		ConnMaxLife:  1 * time.Hour,
		LogLevel:     getenvString("DB_LOG_LEVEL", "warn"),
		AutoMigrate:  getenvBool("DB_AUTO_MIGRATE", true),
	}
}

func buildDSN(driver string) string {
	database := getenvString("DB_NAME", "networking")

	switch driver {
	case DriverMySQL:
		user := getenvString("DB_USER", "root")
		password := getenvString("DB_PASSWORD", "root")
		host := getenvString("DB_HOST", "mysql")
		port := getenvString("DB_PORT", "3306")
		return user + ":" + password + "@tcp(" + host + ":" + port + ")/" + database + "?charset=utf8mb4&parseTime=True&loc=UTC"
	case DriverSQLite:
		return "file:" + database + ".db?_busy_timeout=5000"
	default:
		user := getenvString("DB_USER", "postgres")
		password := getenvString("DB_PASSWORD", "postgres")
		host := getenvString("DB_HOST", "postgres")
		port := getenvString("DB_PORT", "5432")
		sslMode := getenvString("DB_SSLMODE", "disable")
		return "host=" + host + " user=" + user + " password=" + password + " dbname=" + database +
			" port=" + port + " sslmode=" + sslMode + " TimeZone=UTC"
	}
}
