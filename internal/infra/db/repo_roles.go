package db

import (
	"context"
	"errors"

	"fieldserve/internal/domain"

	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) LookupRole(ctx context.Context, subject string) (domain.RoleRecord, error) {
	if r.db == nil {
		return domain.RoleRecord{}, errDBUnavailable
	}
	var model UserRoleModel
	err := r.db.WithContext(ctx).First(&model, "subject = ?", subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RoleRecord{}, domain.ErrNotFound
		}
		return domain.RoleRecord{}, err
	}
	return domain.RoleRecord{
		Subject: model.Subject,
		IsAdmin: model.IsAdmin,
	}, nil
}
