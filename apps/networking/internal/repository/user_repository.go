package repository

import (
	"context"
	"strings"

	"NetworkingServer/model"

	"gorm.io/gorm"
)

// userRepositoryImpl 用户数据访问层实现
type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *gorm.DB) IUserRepository {
	return &userRepositoryImpl{db: db}
}

// GetByID 按主键获取未删除用户
func (r *userRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := conn(ctx, r.db).
		Where("id = ? AND "+model.NotDeleted, id, false).
		First(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// GetByTelegramID 按 telegram_id 获取未删除用户
func (r *userRepositoryImpl) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := conn(ctx, r.db).
		Where("telegram_id = ? AND "+model.NotDeleted, telegramID, false).
		First(&user).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &user, nil
}

// AttendeeQuery 参会者检索条件
type AttendeeQuery struct {
	EventID   int64  // 0 表示不限活动
	ExcludeID int64  // 排除的用户（当前用户）
	Search    string // 昵称或用户名包含，不区分大小写
	Page      int
	PageSize  int
}

// likeEscaper LIKE 通配符转义，转义字符为 !
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// ListAttendees 按 id 升序分页
func (r *userRepositoryImpl) ListAttendees(ctx context.Context, q AttendeeQuery) ([]*model.User, int64, error) {
	page, pageSize := NormalizePage(q.Page, q.PageSize)

	query := func() *gorm.DB {
		db := conn(ctx, r.db).Model(&model.User{}).
			Where("users.is_deleted = ? AND users.is_active = ?", false, true)
		if q.ExcludeID > 0 {
			db = db.Where("users.id <> ?", q.ExcludeID)
		}
		if q.EventID > 0 {
			db = db.Where("EXISTS (SELECT 1 FROM user_event ue WHERE ue.user_id = users.id AND ue.base_event_id = ? AND ue.is_deleted = ?)", q.EventID, false)
		}
		if s := strings.TrimSpace(q.Search); s != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
			db = db.Where(`(LOWER(users.name) LIKE ? ESCAPE '!' OR LOWER(users.username) LIKE ? ESCAPE '!')`, pattern, pattern)
		}
		return db
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}

	var users []*model.User
	err := query().
		Order("users.id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}
	return users, total, nil
}
