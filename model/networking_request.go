package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus 社交请求状态
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
	StatusSpam     RequestStatus = "spam"
	StatusRemoved  RequestStatus = "removed"
)

// IsResponse 是否为接收方可选的响应状态
func (s RequestStatus) IsResponse() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusSpam:
		return true
	}
	return false
}

// CanTransition 状态迁移规则
//   - pending 只能迁移到 accepted / rejected / spam
//   - accepted 只能迁移到 removed
//   - 其余状态为终态，任何状态都不能回到 pending
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	switch s {
	case StatusPending:
		return to.IsResponse()
	case StatusAccepted:
		return to == StatusRemoved
	}
	return false
}

// NetworkingRequest 带质押的社交请求
// pending_pair 仅在 pending 状态下为 "<小id>:<大id>"，其余状态为 NULL，
// 唯一索引保证同一对用户（不分方向）同一时间最多一条 pending
type NetworkingRequest struct {
	Id          int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	RequestId   string `gorm:"column:request_id;type:varchar(100);uniqueIndex;not null;comment:对外幂等id"`
	SenderId    int64  `gorm:"column:sender_id;not null;index:idx_sender_status,priority:1;comment:发送方"`
	ReceiverId  int64  `gorm:"column:receiver_id;not null;index:idx_receiver_status,priority:1;comment:接收方"`
	NoteContent string `gorm:"column:note_content;type:text;not null;comment:附言"`

	SenderWallet   *string             `gorm:"column:sender_wallet;type:varchar(44);comment:发送方钱包"`
	ReceiverWallet *string             `gorm:"column:receiver_wallet;type:varchar(44);comment:接收方钱包"`
	EscrowAccount  *string             `gorm:"column:escrow_account;type:varchar(44);comment:托管账户"`
	TxSignature    *string             `gorm:"column:tx_signature;type:varchar(88);comment:交易签名"`
	TransactionId  *string             `gorm:"column:transaction_id;type:varchar(255);comment:质押交易id"`
	AmountStaked   decimal.NullDecimal `gorm:"column:amount_staked;type:decimal(10,6);comment:质押金额(SOL)"`

	Status      RequestStatus `gorm:"column:status;type:varchar(20);not null;default:'pending';index:idx_sender_status,priority:2;index:idx_receiver_status,priority:2;comment:状态"`
	PendingPair *string       `gorm:"column:pending_pair;type:varchar(64);uniqueIndex;comment:pending 唯一约束键"`

	RefundTransactionId *string    `gorm:"column:refund_transaction_id;type:varchar(255);comment:退款交易id"`
	RefundPendingTx     *string    `gorm:"column:refund_pending_tx;type:varchar(255);comment:已上链但未完成记账的退款交易id"`
	RefundedAt          *time.Time `gorm:"column:refunded_at;comment:退款时间"`
	IsRefundDelayed     bool       `gorm:"column:is_refund_delayed;not null;default:false;index;comment:活动结束后待退款"`

	EventId *int64 `gorm:"column:event_id;index;comment:关联活动(可空)"`

	Sender   *User      `gorm:"foreignKey:SenderId;references:Id"`
	Receiver *User      `gorm:"foreignKey:ReceiverId;references:Id"`
	Event    *BaseEvent `gorm:"foreignKey:EventId;references:Id;constraint:OnDelete:SET NULL"`
	Base
}

func (NetworkingRequest) TableName() string { return "networking_request" }

// PairKey 无序用户对的 pending 唯一键
func PairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Counterpart 返回 viewer 在该请求中的对方（用户可能未预加载，此时为 nil）
func (r *NetworkingRequest) Counterpart(viewer int64) (*User, int64) {
	if r.SenderId == viewer {
		return r.Receiver, r.ReceiverId
	}
	return r.Sender, r.SenderId
}

// SentBy 请求是否由 userID 发出
func (r *NetworkingRequest) SentBy(userID int64) bool {
	return r.SenderId == userID
}
