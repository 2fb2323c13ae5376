package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/dao"
	"github.com/haierkeys/novel-sync-service/internal/middleware"
	"github.com/haierkeys/novel-sync-service/internal/service"
	"github.com/haierkeys/novel-sync-service/pkg/logger"
	"github.com/haierkeys/novel-sync-service/pkg/storage"
	"github.com/haierkeys/novel-sync-service/pkg/util"
	"github.com/haierkeys/novel-sync-service/pkg/workerpool"
	"github.com/haierkeys/novel-sync-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File      string                  `yaml:"-"` // 配置文件路径，不序列化
	Server    ServerConfig            `yaml:"server"`
	Log       LogConfig               `yaml:"log"`
	Database  dao.DatabaseConfig      `yaml:"database"`
	App       AppSettings             `yaml:"app"`
	Sync      SyncConfig              `yaml:"sync"`
	User      UserConfig              `yaml:"user"`
	Security  SecurityConfig          `yaml:"security"`
	RateLimit RateLimitConfig         `yaml:"rate-limit"`
	Snapshot  SnapshotConfig          `yaml:"snapshot"`
	Tracer    middleware.TracerConfig `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，为空时输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9100"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics / pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9101"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"novel-sync-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	// RequireAuth 同步接口是否要求登录
	RequireAuth bool `yaml:"require-auth" default:"false"`
}

// UserConfig 用户配置
type UserConfig struct {
	// RegisterIsEnable 注册是否启用
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"4"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"64"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// SyncConfig 同步配置
type SyncConfig struct {
	// SnapshotPull 拉取时在同一个只读事务中读取全部类型
	SnapshotPull bool `yaml:"snapshot-pull" default:"false"`
	// HintEnabled 推送成功后通过 websocket 广播同步提示
	HintEnabled *bool `yaml:"hint-enabled" default:"true"`
}

// RateLimitConfig 同步接口限流配置（令牌桶）
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
	// Capacity 令牌桶容量
	Capacity int64 `yaml:"capacity" default:"100"`
	// FillInterval 每个令牌的填充间隔
	FillInterval string `yaml:"fill-interval" default:"1s"`
}

// SnapshotConfig 快照配置
type SnapshotConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
	// Cron 标准五段 cron 表达式
	Cron string `yaml:"cron" default:"0 3 * * *"`
	// Retain 保留的快照数量，0 表示全部保留
	Retain  int            `yaml:"retain" default:"7"`
	Storage storage.Config `yaml:"storage"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置内容
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "re-set default config failed")
	}

	if _, ok := storage.StorageTypeMap[c.Snapshot.Storage.Type]; !ok {
		return nil, errors.Errorf("unsupported snapshot storage type %q", c.Snapshot.Storage.Type)
	}

	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	cfg.Name = "app"

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetRateLimitFillInterval 获取令牌填充间隔
func (c *AppConfig) GetRateLimitFillInterval() time.Duration {
	if d, err := util.ParseDuration(c.RateLimit.FillInterval); err == nil && d > 0 {
		return d
	}
	return time.Second
}

// GetDefaultContextTimeout 获取请求上下文超时时间
func (c *AppConfig) GetDefaultContextTimeout() time.Duration {
	return time.Duration(c.App.DefaultContextTimeout) * time.Second
}

// HintEnabled 同步提示是否启用，未配置时默认启用
func (c *AppConfig) HintEnabled() bool {
	return c.Sync.HintEnabled == nil || *c.Sync.HintEnabled
}

// GetDatabaseConfig DAO 层使用的数据库配置，RunMode 跟随 server.run-mode
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	d := c.Database
	d.RunMode = c.Server.RunMode
	return d
}

// GetLoggerConfig 转换为日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetServiceConfig 提取 Service 层需要的配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: c.User.RegisterIsEnable,
		},
		Sync: service.SyncServiceConfig{
			SnapshotPull: c.Sync.SnapshotPull,
			HintEnabled:  c.HintEnabled(),
		},
		Snapshot: service.SnapshotServiceConfig{
			Retain: c.Snapshot.Retain,
		},
	}
}
