package repository

import (
	"context"
	"time"

	"NetworkingServer/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// walletRepositoryImpl 钱包绑定数据访问层实现
type walletRepositoryImpl struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储实例
func NewWalletRepository(db *gorm.DB) IWalletRepository {
	return &walletRepositoryImpl{db: db}
}

// GetByUserID 获取用户绑定的钱包
func (r *walletRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*model.WalletConnection, error) {
	var wallet model.WalletConnection
	err := conn(ctx, r.db).
		Where("user_id = ? AND "+model.NotDeleted, userID, false).
		First(&wallet).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &wallet, nil
}

// GetAddresses 批量获取钱包地址
func (r *walletRepositoryImpl) GetAddresses(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var wallets []model.WalletConnection
	err := conn(ctx, r.db).
		Select("user_id", "wallet_address").
		Where("user_id IN ? AND "+model.NotDeleted, userIDs, false).
		Find(&wallets).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	for _, w := range wallets {
		out[w.UserId] = w.WalletAddress
	}
	return out, nil
}

// Upsert 绑定或替换用户钱包
// 1. 地址已属于其他用户 -> ErrDuplicateKey
// 2. 按 user_id upsert，整行替换地址并刷新 last_connected
// 并发下两个用户抢同一地址时，由 wallet_address 唯一索引兜底
func (r *walletRepositoryImpl) Upsert(ctx context.Context, userID int64, address string, now time.Time) (*model.WalletConnection, error) {
	var wallet model.WalletConnection
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&model.WalletConnection{}).
			Where("wallet_address = ? AND user_id <> ?", address, userID).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return gorm.ErrDuplicatedKey
		}

		row := model.WalletConnection{
			UserId:        userID,
			WalletAddress: address,
			LastConnected: now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wallet_address": address,
				"last_connected": now,
				"is_deleted":     false,
				"updated_date":   now,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).First(&wallet).Error
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &wallet, nil
}
