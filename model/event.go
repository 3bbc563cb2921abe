package model

import "time"

// BaseEvent 线下活动
// ending_date 按日期语义比较，结束日严格早于今天（UTC）即视为已结束
type BaseEvent struct {
	Id             int64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Name           *string    `gorm:"column:name;type:varchar(150);comment:活动名称"`
	Code           string     `gorm:"column:code;type:varchar(100);not null;uniqueIndex;comment:活动编码(加入活动用)"`
	Address        *string    `gorm:"column:address;type:varchar(100);comment:地址"`
	City           *string    `gorm:"column:city;type:varchar(100);comment:城市"`
	StartingDate   *time.Time `gorm:"column:starting_date;type:date;comment:开始日期"`
	EndingDate     *time.Time `gorm:"column:ending_date;type:date;index;comment:结束日期"`
	CreatedByAdmin bool       `gorm:"column:created_by_admin;not null;default:false;comment:是否运营创建"`
	Base
}

func (BaseEvent) TableName() string { return "base_event" }

// HasEnded 活动是否已结束（结束日严格早于 now 所在自然日）
func (e *BaseEvent) HasEnded(now time.Time) bool {
	if e == nil || e.EndingDate == nil {
		return false
	}
	end := e.EndingDate.UTC()
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	u := now.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return endDay.Before(today)
}
