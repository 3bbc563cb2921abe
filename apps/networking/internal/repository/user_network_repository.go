package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"NetworkingServer/model"

	"gorm.io/gorm"
)

// userNetworkRepositoryImpl 扫码结识与会面笔记数据访问层实现
type userNetworkRepositoryImpl struct {
	db *gorm.DB
}

// NewUserNetworkRepository 创建结识记录仓储实例
func NewUserNetworkRepository(db *gorm.DB) IUserNetworkRepository {
	return &userNetworkRepositoryImpl{db: db}
}

// FindBetween 两人之间的结识记录（不分方向）
func (r *userNetworkRepositoryImpl) FindBetween(ctx context.Context, a, b int64) (*model.UserNetwork, error) {
	var n model.UserNetwork
	err := conn(ctx, r.db).
		Preload("BaseEvent").
		Where("network_pair = ? AND "+model.NotDeleted, model.PairKey(a, b), false).
		First(&n).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &n, nil
}

// Create 插入结识记录，同时创建空白会面笔记（由被扫方占位）
// network_pair 唯一索引拦截并发扫码，冲突返回 ErrDuplicateKey
func (r *userNetworkRepositoryImpl) Create(ctx context.Context, n *model.UserNetwork) error {
	n.NetworkPair = model.PairKey(n.ScannerId, n.ScannedId)
	if n.MeetingDate.IsZero() {
		n.MeetingDate = time.Now().UTC()
	}

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Scanner", "Scanned", "BaseEvent").Create(n).Error; err != nil {
			return err
		}
		scanned := n.ScannedId
		info := &model.MeetingInformation{NetworkId: n.Id, InformationSavedUserId: &scanned}
		return tx.Omit("Network", "Images").Create(info).Error
	})
	return WrapDBError(err)
}

// GetByID 带双方用户与活动
func (r *userNetworkRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.UserNetwork, error) {
	var n model.UserNetwork
	err := conn(ctx, r.db).
		Preload("Scanner").
		Preload("Scanned").
		Preload("BaseEvent").
		Where("id = ? AND "+model.NotDeleted, id, false).
		First(&n).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &n, nil
}

// List 用户参与的结识记录，最近的在前
// eventTitle 非空时只保留 userID 自己参会记录标题匹配（不区分大小写）的活动
func (r *userNetworkRepositoryImpl) List(ctx context.Context, userID int64, eventTitle string, page, pageSize int) ([]*model.UserNetwork, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := func() *gorm.DB {
		db := conn(ctx, r.db).Model(&model.UserNetwork{}).
			Where("(scanner_id = ? OR scanned_id = ?)", userID, userID).
			Where(model.NotDeleted, false)
		if t := strings.TrimSpace(eventTitle); t != "" {
			db = db.Where("base_event_id IN (SELECT base_event_id FROM user_event WHERE user_id = ? AND LOWER(title) = ? AND is_deleted = ?)",
				userID, strings.ToLower(t), false)
		}
		return db
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var rows []*model.UserNetwork
	err := query().
		Preload("Scanner").
		Preload("Scanned").
		Preload("BaseEvent").
		Order("meeting_date DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return rows, total, nil
}

// GetMeeting 会面笔记（带图片，按上传顺序）
func (r *userNetworkRepositoryImpl) GetMeeting(ctx context.Context, networkID int64) (*model.MeetingInformation, error) {
	var info model.MeetingInformation
	err := conn(ctx, r.db).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where(model.NotDeleted, false).Order("id ASC")
		}).
		Where("network_id = ? AND "+model.NotDeleted, networkID, false).
		First(&info).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &info, nil
}

// SaveMeeting 写入会面总结并整体替换图片
// 同一事务内：
//  1. 笔记不存在时创建，存在时更新 summary_note 与 information_saved_user_id
//  2. 删除旧图片
//  3. 插入新图片
func (r *userNetworkRepositoryImpl) SaveMeeting(ctx context.Context, networkID, savedBy int64, summary string, images []*model.MeetingImage) (*model.MeetingInformation, error) {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var info model.MeetingInformation
		err := tx.Where("network_id = ?", networkID).First(&info).Error
		switch {
		case err == nil:
			if err := tx.Model(&model.MeetingInformation{}).
				Where("id = ?", info.Id).
				Updates(map[string]interface{}{
					"summary_note":              summary,
					"information_saved_user_id": savedBy,
					"is_deleted":                false,
				}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			info = model.MeetingInformation{NetworkId: networkID, SummaryNote: summary, InformationSavedUserId: &savedBy}
			if err := tx.Omit("Network", "Images").Create(&info).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := tx.Where("meeting_information_id = ?", info.Id).Delete(&model.MeetingImage{}).Error; err != nil {
			return err
		}
		for _, img := range images {
			img.Id = 0
			img.MeetingInformationId = info.Id
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return r.GetMeeting(ctx, networkID)
}
