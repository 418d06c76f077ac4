//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/configs"
)

// 纯 Go 驱动通过 _pragma 参数设置连接级 PRAGMA；外键默认关闭，删除用户时需要级联 Tier.
var sqlitePragmas = []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}

func init() {
	RegisterDialectorFactory(func(dsn string) gorm.Dialector {
		return sqlite.Open(appendDSNParams(dsn, sqlitePragmas...))
	}, configs.SQLite)
}
