//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/configs"
)

// mysqlStringSize utf8mb4 下可建索引的 varchar 上限.
const mysqlStringSize = 191

func init() {
	RegisterDialectorFactory(func(dsn string) gorm.Dialector {
		return mysql.New(mysql.Config{
			DSN:               dsn,
			DefaultStringSize: mysqlStringSize,
		})
	}, configs.MySQL, configs.MariaDB)
}
