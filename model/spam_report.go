package model

// BanThreshold 累计被举报次数达到该值即封禁
const BanThreshold = 15

// SpamReport 垃圾请求举报台账，每个被举报用户一行
// report_count 只增不减；is_banned 自动置位后不会自动恢复，只能由运营手动解封
type SpamReport struct {
	Id             int64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	ReportedUserId int64 `gorm:"column:reported_user_id;not null;uniqueIndex;comment:被举报用户"`
	ReportCount    int   `gorm:"column:report_count;not null;default:0;comment:累计举报次数"`
	IsBanned       bool  `gorm:"column:is_banned;not null;default:false;comment:是否封禁"`

	ReportedUser *User `gorm:"foreignKey:ReportedUserId;references:Id"`
	Base
}

func (SpamReport) TableName() string { return "spam_report" }
