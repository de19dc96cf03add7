// Package storage 文件存储抽象：本地磁盘或 S3 兼容对象存储。
// 路径统一使用 "/" 分隔的相对 key，例如 logbooks/week_1_TRZ260001.pdf。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/TraitzTech/trazor-api-sub000/config"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey key 非法（绝对路径或包含 ..）
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage 文件存储接口
// Put 对同一 key 为覆盖语义
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// New 根据配置创建存储实现
func New(ctx context.Context, cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, &cfg.S3)
	case "local", "":
		return NewLocalStorage(cfg.LocalRoot, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// cleanKey 规范化 key，拒绝越界路径
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
