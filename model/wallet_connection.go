package model

import "time"

// WalletConnection 用户绑定的链上钱包，一人一个，地址全局唯一
type WalletConnection struct {
	Id            int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserId        int64     `gorm:"column:user_id;not null;uniqueIndex;comment:用户"`
	WalletAddress string    `gorm:"column:wallet_address;type:varchar(255);not null;uniqueIndex;comment:钱包地址"`
	LastConnected time.Time `gorm:"column:last_connected;not null;comment:最近一次连接时间"`
	Base
}

func (WalletConnection) TableName() string { return "wallet_connection" }
