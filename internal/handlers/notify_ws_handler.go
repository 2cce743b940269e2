package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"samiti/internal/access"
	"samiti/internal/database"
	"samiti/pkg/config"
	"samiti/pkg/jwt"
	"samiti/pkg/logger"
	"samiti/pkg/queue"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// NotifyWSHandler 通知推送WebSocket处理器。
// 每个连接订阅所在组织的通知频道，把队列发布的消息实时转发给客户端。
type NotifyWSHandler struct {
	upgrader    websocket.Upgrader
	notifyQueue *queue.NotifyQueue
	jwtManager  *jwt.Manager
	log         *logrus.Logger
}

// NewNotifyWSHandler 创建通知推送处理器
func NewNotifyWSHandler() *NotifyWSHandler {
	cfg := config.GetConfig()
	allowedOrigins := cfg.CORS.AllowOrigins

	return &NotifyWSHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				for _, allowed := range allowedOrigins {
					if allowed == "*" {
						return true
					}
				}

				// 同源请求没有Origin头，放行
				if origin == "" {
					return true
				}

				for _, allowed := range allowedOrigins {
					if matchOrigin(origin, allowed) {
						return true
					}
				}

				logger.GetLogger().Warnf("WebSocket连接被拒绝，非法Origin: %s", origin)
				return false
			},
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
		},
		notifyQueue: database.GetNotifyQueue(),
		jwtManager:  jwt.GetManager(),
		log:         logger.GetLogger(),
	}
}

// Stream 建立组织通知推送连接。
// WebSocket不支持自定义header，令牌从查询参数读取；
// 成员资格照常走门禁检查，连接建立不豁免任何授权规则。
func (h *NotifyWSHandler) Stream(c *gin.Context) {
	tenantID, ok := parseTenantID(c)
	if !ok {
		return
	}

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证令牌"})
		return
	}

	claims, err := h.jwtManager.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无效的令牌"})
		return
	}

	gate := access.NewGate(database.GetDB(), access.StaticResolver{
		Principal: &access.Principal{ID: claims.UserID, Email: claims.Email},
	})
	if _, err := gate.Authorize(tenantID); err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket升级失败")
		return
	}
	defer conn.Close()

	h.log.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"user_id":     claims.UserID,
		"remote_addr": c.ClientIP(),
	}).Info("通知推送连接已建立")

	h.forward(conn, tenantID)
}

// forward 订阅租户频道并把通知转发给客户端
func (h *NotifyWSHandler) forward(conn *websocket.Conn, tenantID uint) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.notifyQueue.Subscribe(ctx, tenantID)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.WithError(err).Error("订阅通知频道失败")
		return
	}

	go h.readPump(conn, cancel)

	ch := pubsub.Channel()

	const writeTimeout = 10 * time.Second

	pingTicker := time.NewTicker(60 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var notification queue.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
				h.log.WithError(err).Error("解析通知消息失败")
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(&notification); err != nil {
				h.log.WithError(err).Error("推送通知失败")
				return
			}
		}
	}
}

// readPump 消费客户端消息，主要处理ping/pong和断连
func (h *NotifyWSHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 300 * time.Second
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Error("WebSocket异常关闭")
			}
			break
		}
	}
}

// matchOrigin 检查origin是否匹配allowed模式
// 支持精确匹配和通配符匹配（如 *.example.com）
func matchOrigin(origin, allowed string) bool {
	if origin == allowed {
		return true
	}

	if strings.HasPrefix(allowed, "*.") {
		domain := allowed[2:]

		originHost := origin
		if idx := strings.Index(origin, "://"); idx != -1 {
			originHost = origin[idx+3:]
		}
		if idx := strings.Index(originHost, ":"); idx != -1 {
			originHost = originHost[:idx]
		}

		if originHost == domain {
			return true
		}
		if strings.HasSuffix(originHost, "."+domain) {
			return true
		}
	}

	return false
}
