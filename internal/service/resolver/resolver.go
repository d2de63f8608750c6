package resolver

import (
	"context"
	"fmt"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/repository"
)

// Resolver 接收者解析。
// 请求里手动指定了地址就直接用；否则回退到模板配置的默认分组和默认接收者。
// 合并顺序：先分组（按配置顺序，组内按入组顺序），再单个接收者，重复的以首次出现为准。
type Resolver interface {
	Resolve(ctx context.Context, tmpl domain.Template, typ domain.ChannelType, manual []string) ([]domain.ResolvedRecipient, int, error)
}

type resolver struct {
	repo   repository.RecipientRepository
	logger logger.Logger
}

func NewResolver(repo repository.RecipientRepository, l logger.Logger) Resolver {
	return &resolver{repo: repo, logger: l}
}

func (r *resolver) Resolve(ctx context.Context, tmpl domain.Template, typ domain.ChannelType, manual []string) ([]domain.ResolvedRecipient, int, error) {
	if len(manual) > 0 {
		return r.resolveManual(manual), 0, nil
	}
	return r.resolveDefaults(ctx, tmpl, typ)
}

func (r *resolver) resolveManual(manual []string) []domain.ResolvedRecipient {
	seen := make(map[string]struct{}, len(manual))
	resolved := make([]domain.ResolvedRecipient, 0, len(manual))
	for _, addr := range manual {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		resolved = append(resolved, domain.ResolvedRecipient{Address: addr})
	}
	return resolved
}

func (r *resolver) resolveDefaults(ctx context.Context, tmpl domain.Template, typ domain.ChannelType) ([]domain.ResolvedRecipient, int, error) {
	var candidates []domain.Recipient
	seen := make(map[int64]struct{})
	for _, groupID := range tmpl.RecipientGroupIDs {
		members, err := r.repo.GetByGroupID(ctx, groupID)
		if err != nil {
			return nil, 0, err
		}
		for _, m := range members {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			candidates = append(candidates, m)
		}
	}
	if len(tmpl.RecipientIDs) > 0 {
		singles, err := r.repo.GetByIDs(ctx, tmpl.RecipientIDs)
		if err != nil {
			return nil, 0, err
		}
		for _, s := range singles {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			candidates = append(candidates, s)
		}
	}

	var skipped int
	resolved := make([]domain.ResolvedRecipient, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != domain.StatusEnabled {
			skipped++
			continue
		}
		addr, ok := c.Address(typ)
		if !ok {
			r.logger.Warn("接收者缺少该渠道地址，跳过",
				logger.Int64("recipientId", c.ID),
				logger.String("channelType", typ.String()))
			skipped++
			continue
		}
		resolved = append(resolved, domain.ResolvedRecipient{
			RecipientID: c.ID,
			Name:        c.Name,
			Address:     addr,
		})
	}
	if len(resolved) == 0 {
		return nil, skipped, fmt.Errorf("%w: 模板 %s", errs.ErrNoValidRecipient, tmpl.Code)
	}
	return resolved, skipped, nil
}
