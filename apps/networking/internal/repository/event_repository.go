package repository

import (
	"context"

	"NetworkingServer/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventRepositoryImpl struct {
	db *gorm.DB
}

// NewEventRepository 创建活动仓储实例
func NewEventRepository(db *gorm.DB) IEventRepository {
	return &eventRepositoryImpl{db: db}
}

func (r *eventRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.BaseEvent, error) {
	var event model.BaseEvent
	err := conn(ctx, r.db).
		Where("id = ? AND "+model.NotDeleted, id, false).
		First(&event).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &event, nil
}

func (r *eventRepositoryImpl) GetByCode(ctx context.Context, code string) (*model.BaseEvent, error) {
	var event model.BaseEvent
	err := conn(ctx, r.db).
		Where("code = ? AND is_active = ? AND "+model.NotDeleted, code, true, false).
		First(&event).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &event, nil
}

// FindOrCreate INSERT ... ON CONFLICT(code) DO NOTHING，冲突时读回已有活动
// 并发创建同一活动时只会有一行
func (r *eventRepositoryImpl) FindOrCreate(ctx context.Context, event *model.BaseEvent) (*model.BaseEvent, bool, error) {
	db := conn(ctx, r.db)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return nil, false, WrapDBError(res.Error)
	}
	if res.RowsAffected > 0 {
		return event, true, nil
	}

	var existing model.BaseEvent
	if err := db.Where("code = ? AND "+model.NotDeleted, event.Code, false).First(&existing).Error; err != nil {
		return nil, false, WrapDBError(err)
	}
	return &existing, false, nil
}

// Join 已参加时返回 ErrDuplicateKey
func (r *eventRepositoryImpl) Join(ctx context.Context, ue *model.UserEvent) error {
	ue.Id = 0
	if err := conn(ctx, r.db).Omit("User", "BaseEvent").Create(ue).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

func (r *eventRepositoryImpl) GetAttendance(ctx context.Context, userID, eventID int64) (*model.UserEvent, error) {
	var ue model.UserEvent
	err := conn(ctx, r.db).
		Where("user_id = ? AND base_event_id = ? AND "+model.NotDeleted, userID, eventID, false).
		First(&ue).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &ue, nil
}

// ListJoined 最近参加的在前，只含启用中的活动
func (r *eventRepositoryImpl) ListJoined(ctx context.Context, userID int64, page, pageSize int) ([]*model.UserEvent, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := func() *gorm.DB {
		return conn(ctx, r.db).Model(&model.UserEvent{}).
			Joins("JOIN base_event ON base_event.id = user_event.base_event_id").
			Where("user_event.user_id = ? AND user_event.is_deleted = ?", userID, false).
			Where("base_event.is_active = ? AND base_event.is_deleted = ?", true, false)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var rows []*model.UserEvent
	err := query().
		Preload("BaseEvent").
		Order("user_event.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return rows, total, nil
}

// ListAdminEvents 运营创建的活动，按开始日期倒序
func (r *eventRepositoryImpl) ListAdminEvents(ctx context.Context, page, pageSize int) ([]*model.BaseEvent, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := func() *gorm.DB {
		return conn(ctx, r.db).Model(&model.BaseEvent{}).
			Where("created_by_admin = ? AND is_active = ? AND "+model.NotDeleted, true, true, false)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var events []*model.BaseEvent
	err := query().
		Order("starting_date DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return events, total, nil
}

// CountAttendees 批量统计参会人数，没有参会者的活动不在结果中
func (r *eventRepositoryImpl) CountAttendees(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		BaseEventId int64
		N           int64
	}
	err := conn(ctx, r.db).Model(&model.UserEvent{}).
		Select("base_event_id, COUNT(*) AS n").
		Where("base_event_id IN ? AND "+model.NotDeleted, eventIDs, false).
		Group("base_event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	for _, row := range rows {
		out[row.BaseEventId] = row.N
	}
	return out, nil
}

// JoinedTitles 用户参会记录的标题，去重并按字母序
func (r *eventRepositoryImpl) JoinedTitles(ctx context.Context, userID int64) ([]string, error) {
	var titles []string
	err := conn(ctx, r.db).Model(&model.UserEvent{}).
		Distinct("title").
		Where("user_id = ? AND title <> '' AND "+model.NotDeleted, userID, false).
		Order("title ASC").
		Pluck("title", &titles).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return titles, nil
}
