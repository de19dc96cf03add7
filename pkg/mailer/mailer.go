// Package mailer 邮件发送：SMTP（go-mail）或仅记录日志的降级实现。
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	mail "github.com/go-mail/mail/v2"
	"go.uber.org/zap"

	"github.com/TraitzTech/trazor-api-sub000/config"
)

// Message 待发送邮件
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// New 根据配置选择实现：SMTP 未配置时退化为 LogMailer
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled() {
		logger.Warn("SMTP 未配置，邮件将只写入日志")
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}

// ────────────────────── SMTP ──────────────────────

// SMTPMailer 基于 go-mail 的 SMTP 实现，强制 STARTTLS
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer 创建 SMTPMailer
func NewSMTPMailer(cfg *config.MailConfig) *SMTPMailer {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(cfg.SMTPHost, port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec // 仅开发环境开启
	}
	return &SMTPMailer{dialer: d, from: cfg.From}
}

func (m *SMTPMailer) Send(_ context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	gm := buildMessage(m.from, msg)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("mailer: send %q: %w", msg.Subject, err)
	}
	return nil
}

func buildMessage(from string, msg *Message) *mail.Message {
	gm := mail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}

// ────────────────────── Log ──────────────────────

// LogMailer 只记录日志，不真正发送
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer 创建 LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	m.logger.Info("邮件（未发送）",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// ────────────────────── 模板 ──────────────────────

var credentialsTmpl = template.Must(template.New("credentials").Parse(`<p>Hello {{.Name}},</p>
<p>An account has been created for you on {{.AppName}}.</p>
<p>Email: <b>{{.Email}}</b><br>Temporary password: <b>{{.Password}}</b></p>
{{if .MatriculationNumber}}<p>Matriculation number: <b>{{.MatriculationNumber}}</b></p>{{end}}
<p>You will be asked to change this password after your first login.</p>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>Your {{.AppName}} password has been reset by an administrator.</p>
<p>New temporary password: <b>{{.Password}}</b></p>
<p>You will be asked to change it after your next login.</p>`))

// CredentialsData 账号开通 / 重置密码邮件数据
type CredentialsData struct {
	AppName             string
	Name                string
	Email               string
	Password            string
	MatriculationNumber string
}

// CredentialsEmail 生成账号开通邮件
func CredentialsEmail(data CredentialsData) (*Message, error) {
	return render(credentialsTmpl, data, "Your "+data.AppName+" account", data.Email)
}

// PasswordResetEmail 生成重置密码邮件
func PasswordResetEmail(data CredentialsData) (*Message, error) {
	return render(resetTmpl, data, "Your "+data.AppName+" password was reset", data.Email)
}

func render(t *template.Template, data CredentialsData, subject, to string) (*Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("mailer: render %s: %w", t.Name(), err)
	}
	return &Message{To: []string{to}, Subject: subject, HTML: buf.String()}, nil
}
