package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// ITransactor 跨仓储的事务边界
// fn 内使用传入的 ctx 调用仓储方法，即在同一事务中执行
type ITransactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type transactorImpl struct {
	db *gorm.DB
}

// NewTransactor 创建事务管理器
func NewTransactor(db *gorm.DB) ITransactor {
	return &transactorImpl{db: db}
}

// WithinTx 开启事务；ctx 中已有事务时复用外层事务
func (t *transactorImpl) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn 优先使用 ctx 中的事务句柄
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
