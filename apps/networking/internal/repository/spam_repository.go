package repository

import (
	"context"
	"time"

	"NetworkingServer/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// spamRepositoryImpl 垃圾举报台账数据访问层实现
type spamRepositoryImpl struct {
	db *gorm.DB
}

// NewSpamRepository 创建举报台账仓储实例
func NewSpamRepository(db *gorm.DB) ISpamRepository {
	return &spamRepositoryImpl{db: db}
}

// GetByUserID 获取用户的台账行
func (r *spamRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*model.SpamReport, error) {
	var report model.SpamReport
	err := conn(ctx, r.db).
		Where("reported_user_id = ?", userID).
		First(&report).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &report, nil
}

// GetByUserIDs 批量获取台账行，没有台账的用户不在结果中
func (r *spamRepositoryImpl) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*model.SpamReport, error) {
	out := make(map[int64]*model.SpamReport, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var reports []*model.SpamReport
	if err := conn(ctx, r.db).Where("reported_user_id IN ?", userIDs).Find(&reports).Error; err != nil {
		return nil, WrapDBError(err)
	}
	for _, report := range reports {
		out[report.ReportedUserId] = report
	}
	return out, nil
}

// IsBanned 用户是否被封禁
func (r *spamRepositoryImpl) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.SpamReport{}).
		Where("reported_user_id = ? AND is_banned = ?", userID, true).
		Count(&n).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return n > 0, nil
}

// Increment 累加一次举报
// 同一事务内：
//  1. INSERT ... ON CONFLICT(reported_user_id) DO UPDATE report_count = report_count + 1
//  2. report_count 达到阈值时置位 is_banned（只置 true，从不自动清除）
//  3. 读回最新行
func (r *spamRepositoryImpl) Increment(ctx context.Context, userID int64) (*model.SpamReport, error) {
	var report model.SpamReport
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := model.SpamReport{ReportedUserId: userID, ReportCount: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "reported_user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"report_count": gorm.Expr("spam_report.report_count + 1"),
				"updated_date": now,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.SpamReport{}).
			Where("reported_user_id = ? AND report_count >= ? AND is_banned = ?", userID, model.BanThreshold, false).
			Update("is_banned", true).Error; err != nil {
			return err
		}

		return tx.Where("reported_user_id = ?", userID).First(&report).Error
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &report, nil
}

// SetBanned 运营手动封禁/解封
func (r *spamRepositoryImpl) SetBanned(ctx context.Context, userID int64, banned bool) (*model.SpamReport, error) {
	var report model.SpamReport
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := model.SpamReport{ReportedUserId: userID, IsBanned: banned}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "reported_user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_banned":    banned,
				"updated_date": now,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("reported_user_id = ?", userID).First(&report).Error
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &report, nil
}

// List 分页列出台账，最近更新的在前
func (r *spamRepositoryImpl) List(ctx context.Context, page, pageSize int) ([]*model.SpamReport, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := conn(ctx, r.db).Model(&model.SpamReport{}).Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var reports []*model.SpamReport
	err := conn(ctx, r.db).
		Preload("ReportedUser").
		Order("updated_date DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return reports, total, nil
}

// Totals 封禁人数与累计举报次数
func (r *spamRepositoryImpl) Totals(ctx context.Context) (int64, int64, error) {
	var banned int64
	if err := conn(ctx, r.db).Model(&model.SpamReport{}).
		Where("is_banned = ?", true).
		Count(&banned).Error; err != nil {
		return 0, 0, WrapDBError(err)
	}

	var reports int64
	if err := conn(ctx, r.db).Model(&model.SpamReport{}).
		Select("COALESCE(SUM(report_count), 0)").
		Scan(&reports).Error; err != nil {
		return 0, 0, WrapDBError(err)
	}
	return banned, reports, nil
}
