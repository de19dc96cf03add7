// Package push 移动端推送网关（Firebase Cloud Messaging）。
package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrTokenInvalid 设备令牌被网关拒绝（已注销或格式错误），调用方应清除该令牌
var ErrTokenInvalid = errors.New("push: device token rejected")

// Message 单条推送消息
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Pusher 推送网关接口
type Pusher interface {
	Send(ctx context.Context, msg *Message) error
}

// messagingClient FCM 客户端中用到的方法
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher FCM 推送实现
type FCMPusher struct {
	client messagingClient
	logger *zap.Logger
}

// NewFCMPusher 使用服务账号凭证文件初始化 FCM 客户端
func NewFCMPusher(ctx context.Context, credentialsFile string, logger *zap.Logger) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("push: init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: init messaging client: %w", err)
	}
	return &FCMPusher{client: client, logger: logger}, nil
}

// Send 发送单条推送；令牌失效类错误统一包装为 ErrTokenInvalid
func (p *FCMPusher) Send(ctx context.Context, msg *Message) error {
	if msg.Token == "" {
		return ErrTokenInvalid
	}
	id, err := p.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		if tokenRejected(err) {
			return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
		return fmt.Errorf("push: send: %w", err)
	}
	p.logger.Debug("推送已发送", zap.String("message_id", id))
	return nil
}

var (
	isUnregistered    = messaging.IsUnregistered
	isInvalidArgument = messaging.IsInvalidArgument
)

// tokenRejected 仅在令牌本身失效时返回 true；
// invalid-argument 也会因消息体过大、保留字段等载荷问题返回，须确认错误指向注册令牌
func tokenRejected(err error) bool {
	if isUnregistered(err) {
		return true
	}
	return isInvalidArgument(err) && strings.Contains(strings.ToLower(err.Error()), "registration token")
}

// LogPusher 未启用推送时的占位实现，只记录日志
type LogPusher struct {
	logger *zap.Logger
}

// NewLogPusher 创建 LogPusher
func NewLogPusher(logger *zap.Logger) *LogPusher {
	return &LogPusher{logger: logger}
}

func (p *LogPusher) Send(_ context.Context, msg *Message) error {
	p.logger.Info("推送未启用，跳过发送",
		zap.String("title", msg.Title),
		zap.Int("token_len", len(msg.Token)),
	)
	return nil
}
