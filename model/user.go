package model

// User 用户
// 登录由外部服务完成，本服务只按 telegram_id 读取用户
type User struct {
	Id          int64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	TelegramId  *int64  `gorm:"column:telegram_id;uniqueIndex;comment:Telegram 用户id"`
	Email       *string `gorm:"column:email;type:varchar(254);uniqueIndex;comment:邮箱(管理员)"`
	Name        *string `gorm:"column:name;type:varchar(400);comment:昵称"`
	Username    *string `gorm:"column:username;type:varchar(150);comment:Telegram 用户名"`
	PhotoUrl    *string `gorm:"column:photo_url;type:varchar(2000);comment:头像"`
	IsStaff     bool    `gorm:"column:is_staff;not null;default:false;comment:是否运营人员"`
	IsSuperuser bool    `gorm:"column:is_superuser;not null;default:false;comment:是否超级管理员"`
	Base
}

func (User) TableName() string { return "users" }
