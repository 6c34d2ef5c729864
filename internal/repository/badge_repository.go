//go:generate mockery --name BadgeRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"manabi_quest/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository interface {
	FindByNames(ctx context.Context, db *gorm.DB, names []string) ([]*model.Badge, error)
}

type gormBadgeRepository struct{}

func NewGormBadgeRepository() BadgeRepository {
	return &gormBadgeRepository{}
}

// FindByNames は獲得済みバッジ名からカタログのメタデータを引く。
// カタログ未登録の名前は結果に含まれないだけでエラーにはしない。
func (r *gormBadgeRepository) FindByNames(ctx context.Context, db *gorm.DB, names []string) ([]*model.Badge, error) {
	if len(names) == 0 {
		return []*model.Badge{}, nil
	}
	var badges []*model.Badge
	result := db.WithContext(ctx).Where("name IN ?", names).Find(&badges)
	if result.Error != nil {
		return nil, fmt.Errorf("gormBadgeRepository.FindByNames: %w", result.Error)
	}
	return badges, nil
}
