// Package snapshot 在 OSS 未配置时把分享快照落到本地磁盘。
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore 本地快照存储
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: baseURL,
	}
}

// UploadSnapshot 写入 <dir>/<requestID>.json，返回可访问的 URL
func (s *LocalStore) UploadSnapshot(requestID int64, data []byte) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("snapshot dir not configured")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%d.json", requestID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return fmt.Sprintf("%s/snapshots/%d.json", s.baseURL, requestID), nil
}
