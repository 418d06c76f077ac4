//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/configs"
)

// mattn/go-sqlite3 的连接参数，含义同纯 Go 版本.
var sqlitePragmas = []string{"_foreign_keys=1", "_busy_timeout=5000"}

func init() {
	RegisterDialectorFactory(func(dsn string) gorm.Dialector {
		return sqlite.Open(appendDSNParams(dsn, sqlitePragmas...))
	}, configs.SQLite)
}
