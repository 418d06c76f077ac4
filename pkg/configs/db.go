package configs

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBType 配置中的数据库类型，同一方言允许多个别名.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgre"
	Pg         DBType = "pg"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

// DBConfig 数据库配置.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=postgresql postgre pg mysql mariadb sqlite"`
	Host         string `mapstructure:"host"           rule:"hostname"`
	Port         int    `mapstructure:"port"           rule:"min=1,max=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"` // sqlite 下为文件名（不含 .db）或 :memory:
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`

	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"` // 慢查询日志阈值，0 关闭
	AutoMigrate     bool          `mapstructure:"auto_migrate"`   // 启动时迁移表结构；关闭后使用 imagevault db migrate
}

// GetDBType 返回方言名称，用于日志与 CLI 输出.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "PostgreSQL"
	case MySQL, MariaDB:
		return "MySQL"
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

// GetDSN 按方言拼接连接串，未知类型返回空串.
func (c *DBConfig) GetDSN() string {
	switch c.GetDBType() {
	case "PostgreSQL":
		kv := []string{
			"host=" + c.Host,
			"port=" + strconv.Itoa(c.Port),
			"user=" + c.User,
			"dbname=" + c.Database,
			"sslmode=" + c.SSLMode,
		}
		if c.Password != "" {
			kv = append(kv, "password="+c.Password)
		}

		return strings.Join(kv, " ")
	case "MySQL":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
	case "SQLite":
		if c.Database == ":memory:" {
			return "file::memory:?cache=shared"
		}

		return "file:" + c.Database + ".db"
	default:
		return ""
	}
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	for k, val := range map[string]any{
		"type":              PostgreSQL,
		"host":              "localhost",
		"port":              5432,
		"user":              "postgres",
		"password":          "",
		"database":          "imagevault",
		"sslmode":           "disable",
		"max_open_conns":    0,
		"max_idle_conns":    5,
		"conn_max_lifetime": time.Hour,
		"slow_threshold":    200 * time.Millisecond,
		"auto_migrate":      true,
	} {
		v.SetDefault("db."+k, val)
	}
}
