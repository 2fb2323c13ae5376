package client

import (
	"context"
	"net/url"
	"strings"

	"github.com/haierkeys/novel-sync-service/internal/dto"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	msgAuthorization = "Authorization"
	msgSyncHint      = "SyncHint"
)

// HintFunc 收到同步提示后调用，通常触发一次 Pull
type HintFunc func(ctx context.Context, hint dto.SyncHint)

// wsURL 将 http(s) 地址转换为同步提示的 ws(s) 地址
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/sync/ws"
	return u.String(), nil
}

// Watch 订阅同步提示，直到 ctx 取消或连接断开
// 提示只是建议，可能丢失，调用方仍应定期 Pull
func (c *Client) Watch(ctx context.Context, fn HintFunc) error {
	target, err := c.wsURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return errors.Wrap(err, "dial sync hint")
	}
	defer conn.Close()

	if c.token != "" {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msgAuthorization+"|"+c.token)); err != nil {
			return errors.Wrap(err, "send authorization")
		}
	}

	// ctx 取消时关闭连接以结束 ReadMessage
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read sync hint")
		}

		typ, payload, ok := strings.Cut(string(msg), "|")
		if !ok {
			continue
		}

		switch typ {
		case msgSyncHint:
			var hint dto.SyncHint
			if err := sonic.UnmarshalString(payload, &hint); err != nil {
				c.logger.Warn("client watch: bad hint", zap.Error(err))
				continue
			}
			fn(ctx, hint)
		case msgAuthorization:
			var res envelope
			if err := sonic.UnmarshalString(payload, &res); err == nil && !res.Status {
				return &RemoteError{Code: res.Code, Message: res.Message}
			}
		}
	}
}
