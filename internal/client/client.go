// Package client 提供同步协议的参考客户端
// 游标与已应用的记录版本保存在本地 bbolt 文件中
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/novel-sync-service/internal/domain"
	"github.com/haierkeys/novel-sync-service/internal/dto"
	"github.com/haierkeys/novel-sync-service/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config 客户端配置
type Config struct {
	// BaseURL 服务地址，例如 http://127.0.0.1:9100
	BaseURL string
	// Token 用户认证 Token，服务端未开启认证时可为空
	Token string
	// StatePath bbolt 状态文件路径
	StatePath string
	// Timeout 单次请求超时，默认 60 秒
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client 同步客户端
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	state   *State
	logger  *zap.Logger
}

// RemoteError 服务端返回的业务错误
type RemoteError struct {
	Code    int
	Message string
	Details any
}

func (e *RemoteError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("remote error %d: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details any             `json:"details"`
}

// ApplyFunc 将拉取到的新变更写入本地存储
// 返回错误时本次拉取不会推进游标
type ApplyFunc func(ctx context.Context, changes *dto.SyncChanges) error

// PullResult 一次拉取的结果
type PullResult struct {
	// Cursor 保存的新游标
	Cursor int64
	// Changes 过滤掉已应用版本后的变更
	Changes dto.SyncChanges
	// Skipped 因重复投递被跳过的记录数
	Skipped int
}

// New 创建客户端并打开本地状态
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if cfg.StatePath == "" {
		return nil, errors.New("state path is required")
	}

	st, err := OpenState(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
		state:   st,
		logger:  lg,
	}, nil
}

// Close 关闭本地状态
func (c *Client) Close() error {
	return c.state.Close()
}

// State 本地状态
func (c *Client) State() *State {
	return c.state
}

// Push 推送本地变更，附带当前游标
func (c *Client) Push(ctx context.Context, changes *dto.SyncChanges) (*dto.SyncPushResponse, error) {
	if changes == nil {
		changes = &dto.SyncChanges{}
	}
	cursor, err := c.state.Cursor()
	if err != nil {
		return nil, errors.Wrap(err, "read cursor")
	}

	req := &dto.SyncPushRequest{Changes: changes}
	if cursor > 0 {
		req.LastSyncCursor = &cursor
	}

	var res dto.SyncPushResponse
	if err := c.post(ctx, "/api/sync/push", req, &res); err != nil {
		return nil, err
	}

	c.logger.Debug("client push",
		zap.String(logger.FieldAction, "push"),
		zap.Int(logger.FieldCount, res.ProcessedCount))
	return &res, nil
}

// Pull 拉取远端变更
// 已应用过的 (kind, id, version) 会被丢弃；apply 成功后才在同一个事务中保存新游标和已应用版本
func (c *Client) Pull(ctx context.Context, apply ApplyFunc) (*PullResult, error) {
	cursor, err := c.state.Cursor()
	if err != nil {
		return nil, errors.Wrap(err, "read cursor")
	}

	req := &dto.SyncPullRequest{}
	if cursor > 0 {
		req.LastSyncCursor = &cursor
	}

	var res dto.SyncPullResponse
	if err := c.post(ctx, "/api/sync/pull", req, &res); err != nil {
		return nil, err
	}

	out := &PullResult{Cursor: res.NewSyncCursor}
	var applied []AppliedRecord

	seen := func(kind domain.EntityKind, r *dto.RecordDTO) (bool, error) {
		ar := AppliedRecord{Kind: kind, ID: r.ID, Version: r.Version}
		ok, err := c.state.IsApplied(ar)
		if err != nil {
			return false, err
		}
		applied = append(applied, ar)
		if ok {
			out.Skipped++
		}
		return ok, nil
	}

	if out.Changes.Novels, err = filterFresh(res.Data.Novels, domain.KindNovel, seen); err != nil {
		return nil, err
	}
	if out.Changes.Volumes, err = filterFresh(res.Data.Volumes, domain.KindVolume, seen); err != nil {
		return nil, err
	}
	if out.Changes.Chapters, err = filterFresh(res.Data.Chapters, domain.KindChapter, seen); err != nil {
		return nil, err
	}
	if out.Changes.Ideas, err = filterFresh(res.Data.Ideas, domain.KindIdea, seen); err != nil {
		return nil, err
	}

	if apply != nil {
		if err := apply(ctx, &out.Changes); err != nil {
			return nil, errors.Wrap(err, "apply changes")
		}
	}

	if err := c.state.Commit(res.NewSyncCursor, applied); err != nil {
		return nil, err
	}

	c.logger.Debug("client pull",
		zap.String(logger.FieldAction, "pull"),
		zap.Int64(logger.FieldCursor, res.NewSyncCursor),
		zap.Int(logger.FieldCount, len(applied)-out.Skipped),
		zap.Int("skipped", out.Skipped))

	return out, nil
}

// recordOf 取出各实体 DTO 内嵌的 RecordDTO
type recordOf interface {
	*dto.NovelDTO | *dto.VolumeDTO | *dto.ChapterDTO | *dto.IdeaDTO
}

func record[T recordOf](v T) *dto.RecordDTO {
	switch x := any(v).(type) {
	case *dto.NovelDTO:
		if x != nil {
			return &x.RecordDTO
		}
	case *dto.VolumeDTO:
		if x != nil {
			return &x.RecordDTO
		}
	case *dto.ChapterDTO:
		if x != nil {
			return &x.RecordDTO
		}
	case *dto.IdeaDTO:
		if x != nil {
			return &x.RecordDTO
		}
	}
	return nil
}

func filterFresh[T recordOf](list []T, kind domain.EntityKind, seen func(domain.EntityKind, *dto.RecordDTO) (bool, error)) ([]T, error) {
	out := make([]T, 0, len(list))
	for _, v := range list {
		r := record(v)
		if r == nil {
			continue
		}
		dup, err := seen(kind, r)
		if err != nil {
			return nil, err
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("request %s: http status %d", path, resp.StatusCode)
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if !env.Status {
		return &RemoteError{Code: env.Code, Message: env.Message, Details: env.Details}
	}

	if len(env.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "decode response data")
	}
	return nil
}
