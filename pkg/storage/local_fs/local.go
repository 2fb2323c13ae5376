package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haierkeys/novel-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/snapshots"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf == nil || conf.SavePath == "" {
		return nil, errors.New("local_fs: save path is empty")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) getSavePath() string {
	root := fileurl.PathSuffixCheckAdd(p.Config.SavePath, "/")
	if p.Config.CustomPath == "" {
		return root
	}
	return root + fileurl.PathSuffixCheckAdd(p.Config.CustomPath, "/")
}

func (p *LocalFS) fullPath(fileKey string) string {
	return filepath.FromSlash(p.getSavePath() + strings.TrimPrefix(fileKey, "/"))
}

// SendContent 写入内容，返回完整路径
func (p *LocalFS) SendContent(ctx context.Context, fileKey string, content []byte) (string, error) {
	dst := p.fullPath(fileKey)
	if err := fileurl.CreatePath(dst, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	// 先写临时文件再改名，避免读到半个文件
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return dst, nil
}

// GetContent 读取内容
func (p *LocalFS) GetContent(ctx context.Context, fileKey string) ([]byte, error) {
	data, err := os.ReadFile(p.fullPath(fileKey))
	if err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	return data, nil
}

// List 列出 prefix 目录下的全部对象 key，按字典序
func (p *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	root := filepath.FromSlash(p.getSavePath())
	dir := p.fullPath(prefix)
	if !fileurl.IsExist(dir) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "local_fs")
	}
	sort.Strings(keys)
	return keys, nil
}
