// ws_gateway.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)，生成连接会话 id 并登记到在线注册表
// 2. 封装 UserConn 对象，管理读写协程 (Read/Write Loop)
// 3. 实现 Pusher 接口供扇出引擎投递事件，推送成功后补记送达回执
// 4. 连接建立/断开时扩散 user_status_changed 事件
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"lingyin_social_server/internal/dao/mysql"
	"lingyin_social_server/internal/dto/request"
	"lingyin_social_server/internal/dto/respond"
	"lingyin_social_server/internal/service/presence"
	"lingyin_social_server/pkg/constants"
	"lingyin_social_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 前端与后端跨域部署，放开 Origin 校验交给网关层处理
var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var ctx = context.Background()

// PushFrame 投递给写协程的推送帧
// MessageId 非 0 时写入成功后补记该消息对本连接用户的送达回执
type PushFrame struct {
	Envelope  []byte
	MessageId int64
}

// DeliveryMarker 送达回执接口，由 receipt.Tracker 实现
type DeliveryMarker interface {
	MarkDelivered(messageId int64, recipientId string) error
}

// UserConn 表示一个 WebSocket 客户端连接
// 同一用户重连会生成新的 UserConn，旧连接被静默销毁
type UserConn struct {
	Conn      *websocket.Conn
	SessionId string
	UserId    string
	SendBack  chan *PushFrame

	// done 关闭时通知写协程退出；SendBack 永不关闭，
	// 断开期间并发进行的推送只会失败，不会触发向已关闭通道发送
	done    chan struct{}
	closed  atomic.Bool
	gateway *Gateway
}

// Gateway WebSocket 网关
// 持有本机全部活跃连接，连接归属用在线注册表回答
type Gateway struct {
	registry *presence.Registry
	engine   *FanOutEngine
	tracker  DeliveryMarker
	bus      EventBus
	userRepo mysql.UserRepository

	// conns 会话id -> *UserConn
	conns sync.Map
}

// NewGateway 创建网关实例
func NewGateway(registry *presence.Registry, engine *FanOutEngine, tracker DeliveryMarker, bus EventBus, userRepo mysql.UserRepository) *Gateway {
	return &Gateway{
		registry: registry,
		engine:   engine,
		tracker:  tracker,
		bus:      bus,
		userRepo: userRepo,
	}
}

// Connect 升级 HTTP 连接为 WebSocket 并完成上线登记
// userId 取自认证中间件，不信任前端传参
func (g *Gateway) Connect(c *gin.Context, userId string) error {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade 失败", zap.Error(err))
		return errorx.Wrap(err, errorx.CodeServerBusy, "websocket upgrade 失败")
	}

	client := &UserConn{
		Conn:      conn,
		SessionId: uuid.NewString(),
		UserId:    userId,
		SendBack:  make(chan *PushFrame, constants.CHANNEL_SIZE),
		done:      make(chan struct{}),
		gateway:   g,
	}
	g.conns.Store(client.SessionId, client)

	// 后注册者胜出：同一用户的旧连接被静默销毁，不产生离线事件
	replaced := g.registry.Register(userId, client.SessionId)
	wasOnline := replaced != ""
	if wasOnline {
		if value, ok := g.conns.LoadAndDelete(replaced); ok {
			value.(*UserConn).shutdown()
		}
	}

	go client.Read()
	go client.Write()

	// 只有离线->在线的跃迁才扩散上线事件，重连不重复广播
	if !wasOnline {
		now := time.Now()
		if err := g.userRepo.UpdateOnlineState(userId, now, true); err != nil {
			zap.L().Error("记录上线时间失败", zap.String("userId", userId), zap.Error(err))
		}
		g.engine.Notify(ctx, Event{
			Type:      EventUserStatusChanged,
			ActorId:   userId,
			Payload:   respond.UserStatusRespond{UserId: userId, Online: true},
			Timestamp: now,
		})
	}

	zap.L().Info("ws连接成功", zap.String("userId", userId), zap.String("sessionId", client.SessionId))
	return nil
}

// Push 实现 Pusher 接口：按会话id 定位连接并投递推送帧
// 通道已满视为该接收者推送失败，由扇出引擎记日志后丢弃
func (g *Gateway) Push(sessionId string, envelope []byte, messageId int64) error {
	value, ok := g.conns.Load(sessionId)
	if !ok {
		return errorx.New(errorx.CodeNotFound, "连接不存在")
	}
	client := value.(*UserConn)
	if client.closed.Load() {
		return errorx.New(errorx.CodeNotFound, "连接已关闭")
	}
	select {
	case client.SendBack <- &PushFrame{Envelope: envelope, MessageId: messageId}:
		return nil
	default:
		return errorx.New(errorx.CodeServerBusy, "推送通道已满")
	}
}

// disconnect 连接断开后的下线处理
// 被顶替的旧连接注销时注册表返回 ok=false，不产生离线事件
func (g *Gateway) disconnect(client *UserConn) {
	client.shutdown()
	g.conns.Delete(client.SessionId)

	userId, ok := g.registry.Unregister(client.SessionId)
	if !ok {
		return
	}

	now := time.Now()
	if err := g.userRepo.UpdateOnlineState(userId, now, false); err != nil {
		zap.L().Error("记录离线时间失败", zap.String("userId", userId), zap.Error(err))
	}
	g.engine.Notify(ctx, Event{
		Type:      EventUserStatusChanged,
		ActorId:   userId,
		Payload:   respond.UserStatusRespond{UserId: userId, Online: false},
		Timestamp: now,
	})
	zap.L().Info("用户下线", zap.String("userId", userId), zap.String("sessionId", client.SessionId))
}

// shutdown 关闭连接资源，幂等
func (c *UserConn) shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.done)
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			zap.L().Debug(err.Error())
		}
	}
}

// Read 从 WebSocket 读取入站帧并发布到总线
// 发送者字段以连接归属覆写，前端无法冒充他人
func (c *UserConn) Read() {
	defer c.gateway.disconnect(c)
	for {
		_, jsonFrame, err := c.Conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				zap.L().Info("ws读取结束", zap.String("userId", c.UserId), zap.Error(err))
			}
			return
		}

		var frame request.ClientFrame
		if err := json.Unmarshal(jsonFrame, &frame); err != nil {
			zap.L().Error("入站帧反序列化失败", zap.Error(err))
			continue
		}
		frame.SenderId = c.UserId
		stamped, err := json.Marshal(frame)
		if err != nil {
			zap.L().Error(err.Error())
			continue
		}

		if err := c.gateway.bus.Publish(ctx, stamped); err != nil {
			zap.L().Error("入站帧发布失败", zap.Error(err))
		}
	}
}

// Write 从 SendBack 通道读取推送帧并写入 WebSocket
// 写入成功即视为送达，补记送达回执
func (c *UserConn) Write() {
	for {
		select {
		case <-c.done:
			return
		case pushFrame := <-c.SendBack:
			if err := c.Conn.WriteMessage(websocket.TextMessage, pushFrame.Envelope); err != nil {
				zap.L().Error(err.Error())
				return
			}
			if pushFrame.MessageId != 0 {
				if err := c.gateway.tracker.MarkDelivered(pushFrame.MessageId, c.UserId); err != nil {
					zap.L().Error("补记送达回执失败", zap.Int64("messageId", pushFrame.MessageId), zap.Error(err))
				}
			}
		}
	}
}
