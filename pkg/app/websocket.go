package app

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/novel-sync-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// 客户端消息类型
	WebSocketMsgAuthorization = "Authorization"
)

// WebSocketMessage 客户端消息，文本帧格式为 "Type|Data"
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
	// RequireAuth 为 true 时，客户端必须先发送 "Authorization|<token>" 才能收到广播
	RequireAuth  bool
	TokenManager TokenManager
	Logger       *zap.Logger
}

// WebsocketClient 结构体来存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	conn     *gws.Conn
	done     chan struct{}
	doneOnce sync.Once
	User     *UserEntity
	ready    bool
}

func (c *WebsocketClient) close() {
	c.doneOnce.Do(func() { close(c.done) })
}

// 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(interval time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				lg.Warn("WebsocketServer Client Ping err", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse 将结果转换为 JSON 格式并发送给客户端
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action string) {
	payload, err := EncodeWebSocketFrame(action, newRes(codeObj))
	if err != nil {
		return
	}
	_ = c.conn.WriteMessage(gws.OpcodeText, payload)
}

// EncodeWebSocketFrame 编码为 "Type|JSON" 文本帧
func EncodeWebSocketFrame(msgType string, content any) ([]byte, error) {
	data, err := sonic.Marshal(content)
	if err != nil {
		return nil, err
	}
	if msgType == "" {
		return data, nil
	}
	return []byte(fmt.Sprintf(`%s|%s`, msgType, data)), nil
}

// DecodeWebSocketFrame 解析 "Type|Data" 文本帧
func DecodeWebSocketFrame(frame string) (WebSocketMessage, bool) {
	index := strings.Index(frame, "|")
	if index == -1 {
		return WebSocketMessage{}, false
	}
	return WebSocketMessage{Type: frame[:index], Data: []byte(frame[index+1:])}, true
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer 广播型 WebSocket 服务，服务端只推送，不处理业务消息
type WebsocketServer struct {
	clients ConnStorage
	mu      sync.RWMutex
	up      *gws.Upgrader
	config  *WebsocketServerConfig
	logger  *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	w := &WebsocketServer{
		clients: make(ConnStorage),
		config:  &c,
		logger:  c.Logger,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("WebsocketServer Upgrade err", zap.Error(err))
			return
		}
		client := &WebsocketClient{conn: socket, done: make(chan struct{}), ready: !w.config.RequireAuth}
		w.AddClient(client)
		go socket.ReadLoop()
		go client.PingLoop(w.config.PingInterval, w.logger)
	}
}

// Broadcast 向全部就绪的客户端广播 "Type|JSON"
func (w *WebsocketServer) Broadcast(msgType string, content any) error {
	payload, err := EncodeWebSocketFrame(msgType, content)
	if err != nil {
		return err
	}

	b := gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	w.mu.RLock()
	defer w.mu.RUnlock()
	for conn, c := range w.clients {
		if !c.ready {
			continue
		}
		_ = b.Broadcast(conn)
	}
	return nil
}

// ClientCount 就绪的客户端数量
func (w *WebsocketServer) ClientCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, c := range w.clients {
		if c.ready {
			n++
		}
	}
	return n
}

func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {
	if w.config.TokenManager == nil {
		w.setReady(c, nil)
		c.ToResponse(code.Success, WebSocketMsgAuthorization)
		return
	}

	user, err := w.config.TokenManager.Parse(string(msg.Data))
	if err != nil {
		w.logger.Warn("WebsocketServer Authorization FAILD", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, WebSocketMsgAuthorization)
		_ = c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	w.setReady(c, user)
	w.logger.Info("WebsocketServer Authorization", zap.String("uid", user.UID))
	c.ToResponse(code.Success, WebSocketMsgAuthorization)
}

func (w *WebsocketServer) setReady(c *WebsocketClient, user *UserEntity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c.User = user
	c.ready = true
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	if c := w.GetClient(conn); c != nil {
		c.close()
	}
	w.RemoveClient(conn)
	w.logger.Debug("WebsocketServer Client Leave", zap.Error(err))
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		_ = conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	msg, ok := DecodeWebSocketFrame(message.Data.String())
	if !ok {
		w.logger.Debug("WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}

	if msg.Type == WebSocketMsgAuthorization {
		w.Authorization(c, &msg)
		return
	}

	// 服务端只广播提示，其余消息忽略
	w.logger.Debug("WebsocketServer OnMessage", zap.String("msg", "Unknown message type"), zap.String("type", msg.Type))
}
