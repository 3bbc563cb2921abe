package model

import "time"

// Base 所有业务表共享的软删除与时间字段
// 业务查询默认过滤 is_deleted = false，见 NotDeleted
type Base struct {
	IsDeleted   bool      `gorm:"column:is_deleted;not null;default:false;index;comment:软删除标记"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true;comment:是否启用"`
	CreatedDate time.Time `gorm:"column:created_date;autoCreateTime;comment:创建时间"`
	UpdatedDate time.Time `gorm:"column:updated_date;autoUpdateTime;comment:更新时间"`
}

// NotDeleted 软删除过滤条件
const NotDeleted = "is_deleted = ?"

// All 返回需要 AutoMigrate 的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&BaseEvent{},
		&NetworkingRequest{},
		&SpamReport{},
		&WalletConnection{},
		&UserEvent{},
		&UserNetwork{},
		&MeetingInformation{},
		&MeetingImage{},
	}
}
