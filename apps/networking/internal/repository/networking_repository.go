package repository

import (
	"context"
	"fmt"
	"time"

	"NetworkingServer/model"

	"gorm.io/gorm"
)

// networkingRepositoryImpl 社交请求数据访问层实现
type networkingRepositoryImpl struct {
	db *gorm.DB
}

// NewNetworkingRepository 创建社交请求仓储实例
func NewNetworkingRepository(db *gorm.DB) INetworkingRepository {
	return &networkingRepositoryImpl{db: db}
}

// Create 插入 pending 请求
// pending_pair 由这里统一赋值，唯一索引拦截并发的重复 pending
// 软删除（运营后台直接改 is_deleted）的 pending 行不再占用该键，插入前先释放
func (r *networkingRepositoryImpl) Create(ctx context.Context, req *model.NetworkingRequest) error {
	pair := model.PairKey(req.SenderId, req.ReceiverId)
	req.Status = model.StatusPending
	req.PendingPair = &pair
	req.IsRefundDelayed = false
	req.RefundTransactionId = nil
	req.RefundPendingTx = nil
	req.RefundedAt = nil

	db := conn(ctx, r.db)
	if err := db.Model(&model.NetworkingRequest{}).
		Where("pending_pair = ? AND is_deleted = ?", pair, true).
		Update("pending_pair", nil).Error; err != nil {
		return WrapDBError(err)
	}
	if err := db.Omit("Sender", "Receiver", "Event").Create(req).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// GetByID 获取请求（带双方用户）
func (r *networkingRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.NetworkingRequest, error) {
	var req model.NetworkingRequest
	err := conn(ctx, r.db).
		Preload("Sender").
		Preload("Receiver").
		Where("id = ? AND "+model.NotDeleted, id, false).
		First(&req).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &req, nil
}

// ExistsBetween 两个用户之间（不分方向）是否存在指定状态的请求
func (r *networkingRepositoryImpl) ExistsBetween(ctx context.Context, a, b int64, status model.RequestStatus) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Where("status = ? AND "+model.NotDeleted, status, false).
		Count(&n).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return n > 0, nil
}

// RequestIDExists request_id 是否已被占用（包含软删除的行，唯一索引覆盖全部行）
func (r *networkingRepositoryImpl) RequestIDExists(ctx context.Context, requestID string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("request_id = ?", requestID).
		Count(&n).Error
	if err != nil {
		return false, WrapDBError(err)
	}
	return n > 0, nil
}

// transition 条件状态迁移：仅当行仍处于 from 且满足 scope 时更新为 to
// 离开 pending 时同时清空 pending_pair，迁移规则以 model.RequestStatus.CanTransition 为准
func (r *networkingRepositoryImpl) transition(ctx context.Context, id int64, from, to model.RequestStatus, scope func(*gorm.DB) *gorm.DB) (bool, error) {
	if !from.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	updates := map[string]interface{}{"status": to}
	if from == model.StatusPending {
		updates["pending_pair"] = nil
	}
	res := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("id = ? AND status = ? AND "+model.NotDeleted, id, from, false).
		Scopes(scope).
		Updates(updates)
	if res.Error != nil {
		return false, WrapDBError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Respond 条件更新
// UPDATE networking_request SET status = ?, pending_pair = NULL
// WHERE id = ? AND status = 'pending' AND receiver_id = ?
// 并发响应同一请求时只有一个能更新成功
func (r *networkingRepositoryImpl) Respond(ctx context.Context, id, receiverID int64, status model.RequestStatus) (bool, error) {
	return r.transition(ctx, id, model.StatusPending, status, func(db *gorm.DB) *gorm.DB {
		return db.Where("receiver_id = ?", receiverID)
	})
}

// MarkRefundDelayed 标记待退款，仅对尚未退款的 spam 请求生效
func (r *networkingRepositoryImpl) MarkRefundDelayed(ctx context.Context, id int64) error {
	err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("id = ? AND status = ? AND refund_transaction_id IS NULL", id, model.StatusSpam).
		Update("is_refund_delayed", true).Error
	return WrapDBError(err)
}

// Remove 条件更新：accepted -> removed，且 userID 必须为一方
func (r *networkingRepositoryImpl) Remove(ctx context.Context, id, userID int64) (bool, error) {
	return r.transition(ctx, id, model.StatusAccepted, model.StatusRemoved, func(db *gorm.DB) *gorm.DB {
		return db.Where("(sender_id = ? OR receiver_id = ?)", userID, userID)
	})
}

// list 公共分页查询：先查总数，再按时间倒序取一页
func (r *networkingRepositoryImpl) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, orderBy string, page, pageSize int) ([]*model.NetworkingRequest, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}
	if total == 0 {
		return []*model.NetworkingRequest{}, 0, nil
	}

	var reqs []*model.NetworkingRequest
	if err := conn(ctx, r.db).
		Scopes(scope).
		Preload("Sender").
		Preload("Receiver").
		Order(orderBy).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reqs).Error; err != nil {
		return nil, 0, WrapDBError(err)
	}
	return reqs, total, nil
}

// ListReceivedPending 收到的待处理请求
func (r *networkingRepositoryImpl) ListReceivedPending(ctx context.Context, receiverID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("receiver_id = ? AND status = ? AND "+model.NotDeleted, receiverID, model.StatusPending, false)
	}, "created_date DESC", page, pageSize)
}

// ListSent 发出的全部请求
func (r *networkingRepositoryImpl) ListSent(ctx context.Context, senderID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("sender_id = ? AND "+model.NotDeleted, senderID, false)
	}, "created_date DESC", page, pageSize)
}

// ListConnections 已建立的连接，按建立（更新）时间倒序
func (r *networkingRepositoryImpl) ListConnections(ctx context.Context, userID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("(sender_id = ? OR receiver_id = ?) AND status = ? AND "+model.NotDeleted,
			userID, userID, model.StatusAccepted, false)
	}, "updated_date DESC", page, pageSize)
}

// CountReceivedPending 收到的待处理请求数
func (r *networkingRepositoryImpl) CountReceivedPending(ctx context.Context, receiverID int64) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("receiver_id = ? AND status = ? AND "+model.NotDeleted, receiverID, model.StatusPending, false).
		Count(&n).Error
	if err != nil {
		return 0, WrapDBError(err)
	}
	return n, nil
}

// ListRefundable 待退款请求
// 活动结束日严格早于 cutoff（调用方传入今天零点），未关联活动的请求不会被选中
func (r *networkingRepositoryImpl) ListRefundable(ctx context.Context, cutoff time.Time, limit int) ([]*model.NetworkingRequest, error) {
	if limit <= 0 {
		limit = MaxPageSize
	}

	var reqs []*model.NetworkingRequest
	err := conn(ctx, r.db).
		Joins("JOIN base_event ON base_event.id = networking_request.event_id").
		Where("networking_request.status = ?", model.StatusSpam).
		Where("networking_request.is_refund_delayed = ?", true).
		Where("networking_request.refund_transaction_id IS NULL").
		Where("networking_request.is_deleted = ?", false).
		Where("base_event.ending_date IS NOT NULL AND base_event.ending_date < ?", cutoff).
		Order("networking_request.id ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return reqs, nil
}

// CompleteRefund 条件写入退款结果
// WHERE refund_transaction_id IS NULL 保证一条请求最多记录一次退款
func (r *networkingRepositoryImpl) CompleteRefund(ctx context.Context, id int64, refundTxID string, refundedAt time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("id = ? AND refund_transaction_id IS NULL", id).
		Updates(map[string]interface{}{
			"refund_transaction_id": refundTxID,
			"refunded_at":           refundedAt,
			"is_refund_delayed":     false,
		})
	if res.Error != nil {
		return false, WrapDBError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RecordRefundTx 记录已上链的退款交易id
// 记账失败时下次扫描据此直接补写结果，不再重复转账
func (r *networkingRepositoryImpl) RecordRefundTx(ctx context.Context, id int64, refundTxID string) error {
	err := conn(ctx, r.db).Model(&model.NetworkingRequest{}).
		Where("id = ? AND refund_transaction_id IS NULL", id).
		Update("refund_pending_tx", refundTxID).Error
	return WrapDBError(err)
}
