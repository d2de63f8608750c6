package adapter

import (
	"context"
	"fmt"

	mail "gopkg.in/mail.v2"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// EmailAdapter SMTP 邮件。
// 渠道配置：host、port、username、password、ssl（可选）、from（可选，默认 username）。
type EmailAdapter struct {
	dialer *mail.Dialer
	from   string
}

func NewEmailAdapter(channel domain.Channel) (Adapter, error) {
	host := channel.Config.Str("host")
	port := channel.Config.Int("port")
	username := channel.Config.Str("username")
	password := channel.Config.Str("password")
	if host == "" || port == 0 || username == "" {
		return nil, fmt.Errorf("%w: 缺少 host/port/username", errs.ErrInvalidParameter)
	}
	dialer := mail.NewDialer(host, port, username, password)
	dialer.SSL = channel.Config.Bool("ssl")
	from := channel.Config.Str("from")
	if from == "" {
		from = username
	}
	return &EmailAdapter{dialer: dialer, from: from}, nil
}

func (e *EmailAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	m := mail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", msg.Target)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/html", msg.Content)

	// SMTP 客户端不认识 context，在 goroutine 里发送，超时由外层 ctx 裁决
	done := make(chan error, 1)
	go func() {
		done <- e.dialer.DialAndSend(m)
	}()
	select {
	case <-ctx.Done():
		return domain.ProviderResult{}, ctx.Err()
	case err := <-done:
		if err != nil {
			return domain.ProviderResult{}, fmt.Errorf("%w: %w", errs.ErrUnreachable, err)
		}
		return domain.ProviderResult{}, nil
	}
}
