// Package storage 快照对象存储
package storage

import (
	"context"

	"github.com/haierkeys/novel-sync-service/pkg/code"
	"github.com/haierkeys/novel-sync-service/pkg/storage/aws_s3"
	"github.com/haierkeys/novel-sync-service/pkg/storage/local_fs"

	"go.uber.org/zap"
)

type Type = string

const S3 Type = "s3"
const LOCAL Type = "localfs"

var StorageTypeMap = map[Type]bool{
	S3:    true,
	LOCAL: true,
}

// Config Unified storage configuration
type Config struct {
	Type Type `yaml:"type" default:"localfs"`

	CustomPath string `yaml:"custom-path"`

	// Cloud Storage (S3 and S3 compatible)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/snapshots"`
}

// Storager 对象存储接口，pathKey 为相对路径
type Storager interface {
	SendContent(ctx context.Context, pathKey string, content []byte) (string, error)
	GetContent(ctx context.Context, pathKey string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, pathKey string) error
}

func NewClient(config *Config, lg *zap.Logger) (Storager, error) {
	if config == nil {
		return nil, code.ErrorInvalidStorageType
	}

	switch config.Type {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case S3:
		return aws_s3.NewClient(&aws_s3.Config{
			Endpoint:        config.Endpoint,
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}, aws_s3.WithLogger(lg))
	}
	return nil, code.ErrorInvalidStorageType.WithDetails(config.Type)
}
