// Package testutil 单测公用的内存库与数据构造
package testutil

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"NetworkingServer/model"
	"NetworkingServer/pkg/id"
	"NetworkingServer/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	loggerOnce sync.Once
	telegramID int64 = 1000
)

// InitLogger 单测统一使用 Nop logger
func InitLogger() {
	loggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

// NewDB 每个测试一份独立的内存 SQLite，并完成建表
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	InitLogger()

	dsn := "file:" + id.GenerateULID() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// 单连接：共享缓存下多连接并发写会报 table is locked
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// CreateUser 插入一个启用状态的用户
func CreateUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	tgID := atomic.AddInt64(&telegramID, 1)
	username := name + "_tg"
	u := &model.User{TelegramId: &tgID, Name: &name, Username: &username}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateEvent 插入一个活动，ending 为结束日期（UTC 零点）
func CreateEvent(t *testing.T, db *gorm.DB, ending time.Time) *model.BaseEvent {
	t.Helper()
	day := time.Date(ending.Year(), ending.Month(), ending.Day(), 0, 0, 0, 0, time.UTC)
	name := "event"
	e := &model.BaseEvent{Name: &name, Code: id.GenerateULID(), EndingDate: &day}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return e
}

// CreateWallet 为用户绑定钱包
func CreateWallet(t *testing.T, db *gorm.DB, userID int64, address string) *model.WalletConnection {
	t.Helper()
	w := &model.WalletConnection{UserId: userID, WalletAddress: address, LastConnected: time.Now()}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

// JoinEvent 用户以 title 参加活动
func JoinEvent(t *testing.T, db *gorm.DB, userID int64, event *model.BaseEvent, title string) *model.UserEvent {
	t.Helper()
	ue := &model.UserEvent{UserId: userID, BaseEventId: event.Id, Title: title, Code: event.Code}
	if err := db.Create(ue).Error; err != nil {
		t.Fatalf("join event: %v", err)
	}
	return ue
}
