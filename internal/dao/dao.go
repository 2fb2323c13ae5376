// Package dao 实现数据访问层
package dao

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/model"
	"github.com/haierkeys/novel-sync-service/pkg/fileurl"
	"github.com/haierkeys/novel-sync-service/pkg/timex"
	"github.com/haierkeys/novel-sync-service/pkg/util"
	"github.com/haierkeys/novel-sync-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// 数据库类型
const (
	TypeSQLite   = "sqlite"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
)

// writeQueueKey SQLite 共享同一个数据库文件，所有写事务使用同一队列
const writeQueueKey = "db"

// DatabaseConfig 数据库配置（DAO 层使用）
type DatabaseConfig struct {
	// Type sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件
	Path     string `yaml:"path" default:"storage/database/novel.sqlite3"`
	UserName string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	// Port 0 表示驱动默认端口
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	SSLMode string `yaml:"ssl-mode" default:"disable"`

	TablePrefix string `yaml:"table-prefix"`
	AutoMigrate bool   `yaml:"auto-migrate" default:"true"`
	Charset     string `yaml:"charset" default:"utf8mb4"`
	ParseTime   bool   `yaml:"parse-time" default:"true"`

	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime / ConnMaxIdleTime 使用 util.ParseDuration 格式，如 30m、1h
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`

	// RunMode 取自 server.run-mode，debug 时打印 SQL
	RunMode string `yaml:"-"`
}

// IsSQLite 是否为 SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c == nil || c.Type == "" || c.Type == TypeSQLite
}

// Dao 数据访问对象，持有数据库连接和写入串行化组件
type Dao struct {
	db         *gorm.DB
	config     *DatabaseConfig
	logger     *zap.Logger
	writeQueue *writequeue.Manager
	clock      timex.Clock
}

// Option Dao 配置选项
type Option func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(c *DatabaseConfig) Option {
	return func(d *Dao) {
		d.config = c
	}
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = l
	}
}

// WithWriteQueueManager 设置写队列，仅 SQLite 生效
func WithWriteQueueManager(m *writequeue.Manager) Option {
	return func(d *Dao) {
		d.writeQueue = m
	}
}

// WithClock 设置记录时间戳使用的时钟
func WithClock(c timex.Clock) Option {
	return func(d *Dao) {
		d.clock = c
	}
}

// New 创建 Dao 实例
func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{
		db:     db,
		logger: zap.NewNop(),
		clock:  timex.System,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB 返回绑定 ctx 的数据库连接
func (d *Dao) DB(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// Clock 返回时钟
func (d *Dao) Clock() timex.Clock {
	return d.clock
}

// ExecuteWrite 执行写操作
// SQLite 下通过写队列串行化，避免 "database is locked"；其他数据库直接执行
// fn 必须使用传入的 ctx，排队超时后未提交的事务随 ctx 一起回滚
func (d *Dao) ExecuteWrite(ctx context.Context, fn func(ctx context.Context) error) error {
	if !d.serializedWrites() {
		return fn(ctx)
	}
	return d.writeQueue.Execute(ctx, writeQueueKey, fn)
}

// serializedWrites 写事务是否经写队列逐个执行
func (d *Dao) serializedWrites() bool {
	return d.writeQueue != nil && d.config.IsSQLite()
}

// snapshotTxOptions 快照读事务选项
// SQLite 的 WAL 读事务本身即为快照；MySQL/Postgres 需要 REPEATABLE READ
func (d *Dao) snapshotTxOptions() *sql.TxOptions {
	if d.config.IsSQLite() {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// NewDBEngine 创建数据库连接
func NewDBEngine(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	if lg == nil {
		lg = zap.NewNop()
	}

	dialector, err := useDialector(c)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`Novel` 的表名应该是 `t_novel`
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if c.RunMode == "debug" {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}

	// SetMaxIdleConns 用于设置连接池中空闲连接的最大数量。
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}

	// SetMaxOpenConns 设置打开数据库连接的最大数量。
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}

	// SetConnMaxLifetime 设置了连接可复用的最大时间。
	sqlDB.SetConnMaxLifetime(parseDurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(parseDurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	if c.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			return nil, errors.Wrap(err, "auto migrate")
		}
	}

	lg.Info("database connected",
		zap.String("type", dbType(c)),
		zap.Bool("autoMigrate", c.AutoMigrate))

	return db, nil
}

func dbType(c DatabaseConfig) string {
	if c.Type == "" {
		return TypeSQLite
	}
	return c.Type
}

func useDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch dbType(c) {
	case TypeMySQL:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		host := c.Host
		if c.Port > 0 && !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, c.Port)
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			host,
			c.Name,
			charset,
			c.ParseTime,
		)), nil
	case TypePostgres:
		port := c.Port
		if port == 0 {
			port = 5432
		}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			c.Host,
			c.UserName,
			c.Password,
			c.Name,
			port,
			sslMode,
		)), nil
	case TypeSQLite:
		if c.Path == "" {
			return nil, errors.New("sqlite path is empty")
		}
		if c.Path == ":memory:" {
			return sqlite.Open(c.Path), nil
		}
		if !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, errors.Wrap(err, "create sqlite path")
			}
		}
		return sqlite.Open(c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := util.ParseDuration(s); err == nil {
		return d
	}
	return def
}
