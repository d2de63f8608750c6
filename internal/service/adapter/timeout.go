package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// timeoutAdapter 给单次投递加超时上限，慢供应商不能拖住工作池
type timeoutAdapter struct {
	next    Adapter
	timeout time.Duration
}

func newTimeoutAdapter(next Adapter, timeout time.Duration) Adapter {
	return &timeoutAdapter{next: next, timeout: timeout}
}

func (t *timeoutAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	res, err := t.next.Send(ctx, msg)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return domain.ProviderResult{}, fmt.Errorf("%w: 超过 %s", errs.ErrSendTimeout, t.timeout)
	}
	return res, err
}
