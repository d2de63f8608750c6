package repository

import (
	"context"

	"github.com/ecodeclub/ekit/slice"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/repository/dao"
)

type RecipientRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Recipient, error)
	GetByGroupID(ctx context.Context, groupID int64) ([]domain.Recipient, error)
}

type recipientRepository struct {
	dao dao.RecipientDAO
}

func NewRecipientRepository(d dao.RecipientDAO) RecipientRepository {
	return &recipientRepository{dao: d}
}

func (r *recipientRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Recipient, error) {
	entities, err := r.dao.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.Recipient) domain.Recipient {
		return toRecipientDomain(src)
	}), nil
}

func (r *recipientRepository) GetByGroupID(ctx context.Context, groupID int64) ([]domain.Recipient, error) {
	entities, err := r.dao.GetByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.Recipient) domain.Recipient {
		return toRecipientDomain(src)
	}), nil
}

func toRecipientDomain(e dao.Recipient) domain.Recipient {
	recipient := domain.Recipient{
		ID:     e.ID,
		Name:   e.Name,
		Mobile: e.Mobile,
		Email:  e.Email,
		Status: e.Status,
		Ctime:  e.Ctime,
		Utime:  e.Utime,
	}
	if e.UserIDs.Valid {
		recipient.UserIDs = e.UserIDs.Val
	}
	return recipient
}
