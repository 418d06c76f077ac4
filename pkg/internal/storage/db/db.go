// Package db 处理数据库存储操作.
package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/model"
	nlog "github.com/yeisme/imagevault/pkg/log"
)

// DialectorFactory 定义创建 dialector 的函数类型.
type DialectorFactory func(dsn string) gorm.Dialector

// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数，可同时注册多个别名.
func RegisterDialectorFactory(factory DialectorFactory, dbTypes ...configs.DBType) {
	for _, t := range dbTypes {
		dialectorFactories[t] = factory
	}
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表（已排序）.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	slices.Sort(types)

	return types
}

// appendDSNParams 在 DSN 的查询串后追加参数.
func appendDSNParams(dsn string, params ...string) string {
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(params, "&")
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
}

// New 按配置打开数据库连接；auto_migrate 开启时执行表结构迁移.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	open, ok := dialectorFactories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %q (registered: %v)", cfg.Type, GetRegisteredDBTypes())
	}

	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("no DSN for database type %q", cfg.Type)
	}

	gdb, err := gorm.Open(open(dsn), &gorm.Config{Logger: gormLogger(cfg), PrepareStmt: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.GetDBType(), err)
	}

	client := &Client{DB: gdb}

	if err := client.configurePool(ctx, cfg); err != nil {
		return nil, errors.Join(err, client.Close())
	}

	if configs.GetConfig().Metrics.Enabled {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			return nil, errors.Join(err, client.Close())
		}
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, gdb); err != nil {
			return nil, errors.Join(err, client.Close())
		}
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("database", cfg.Database).
		Bool("auto_migrate", cfg.AutoMigrate).
		Msg("database connected")

	return client, nil
}

// gormLogger 将 GORM 日志写入全局 zerolog；debug 模式下输出全部 SQL.
func gormLogger(cfg *configs.DBConfig) logger.Interface {
	lc := logger.Config{
		SlowThreshold:             cfg.SlowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	}
	if configs.GetConfig().Server.Debug {
		lc.LogLevel = logger.Info
	}

	return logger.New(nlog.Logger(), lc)
}

func (c *Client) configurePool(ctx context.Context, cfg *configs.DBConfig) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

// Migrate 自动迁移全部领域模型.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(
		&model.Plan{},
		&model.User{},
		&model.Tier{},
		&model.Image{},
		&model.ExpiringLink{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// GetDB 返回 GORM DB 实例.
func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

// HealthCheck 通过 Ping 检查数据库连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// RegisterGORMMetrics 将连接池与查询指标注册到默认 prometheus 注册表，由 /metrics 暴露.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	err := c.Use(gormPrometheus.New(gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: 15,
	}))
	if err != nil {
		return fmt.Errorf("register gorm metrics: %w", err)
	}

	return nil
}
