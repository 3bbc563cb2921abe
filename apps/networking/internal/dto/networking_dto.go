package dto

import (
	"NetworkingServer/model"
	"NetworkingServer/pkg/util"

	"github.com/shopspring/decimal"
)

// ==================== 社交请求相关 DTO ====================

// 请求方向
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// SendRequest 发起社交请求 DTO
// 质押相关字段全部可选；钱包地址与签名按 Solana base58 的最大长度约束
type SendRequest struct {
	Receiver       int64            `json:"receiver" binding:"required,gt=0"`           // 接收方用户ID
	NoteContent    string           `json:"note_content" binding:"required,max=5000"`   // 附言
	RequestID      string           `json:"request_id" binding:"omitempty,max=100"`     // 客户端生成的幂等ID，可空
	SenderWallet   *string          `json:"sender_wallet" binding:"omitempty,max=44"`   // 发送方钱包
	ReceiverWallet *string          `json:"receiver_wallet" binding:"omitempty,max=44"` // 接收方钱包
	EscrowAccount  *string          `json:"escrow_account" binding:"omitempty,max=44"`  // 托管账户
	TxSignature    *string          `json:"tx_signature" binding:"omitempty,max=88"`    // 交易签名
	TransactionID  *string          `json:"transaction_id" binding:"omitempty,max=255"` // 质押交易ID
	AmountStaked   *decimal.Decimal `json:"amount_staked"`                              // 质押金额（SOL）
	EventID        *int64           `json:"event_id" binding:"omitempty,gt=0"`          // 关联活动
}

// RespondRequest 响应请求 DTO
type RespondRequest struct {
	Status string `json:"status" binding:"required"` // accepted | rejected | spam
}

// PageQuery 分页参数
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UserBrief 请求中展示的用户信息
type UserBrief struct {
	ID            int64   `json:"id"`
	Name          *string `json:"name"`
	Username      *string `json:"username"`
	PhotoURL      *string `json:"photo_url"`
	WalletAddress *string `json:"wallet_address"`
}

// NetworkingRequestDetail 请求详情
type NetworkingRequestDetail struct {
	ID                  int64     `json:"id"`
	RequestID           string    `json:"request_id"`
	Sender              int64     `json:"sender"`
	Receiver            int64     `json:"receiver"`
	SenderDetails       UserBrief `json:"sender_details"`
	ReceiverDetails     UserBrief `json:"receiver_details"`
	NoteContent         string    `json:"note_content"`
	Status              string    `json:"status"`
	SenderWallet        *string   `json:"sender_wallet"`
	ReceiverWallet      *string   `json:"receiver_wallet"`
	EscrowAccount       *string   `json:"escrow_account"`
	TxSignature         *string   `json:"tx_signature"`
	TransactionID       *string   `json:"transaction_id"`
	AmountStaked        *string   `json:"amount_staked"`
	EventID             *int64    `json:"event_id"`
	IsRefundDelayed     bool      `json:"is_refund_delayed"`
	RefundTransactionID *string   `json:"refund_transaction_id"`
	RefundedAt          *string   `json:"refunded_at"`
	CreatedDate         string    `json:"created_date"`
	UpdatedDate         string    `json:"updated_date"`
}

// SentRequestItem 发出的请求，附带请求方向
type SentRequestItem struct {
	*NetworkingRequestDetail
	RequestDirection string `json:"request_direction"`
}

// ConnectionItem 已建立的连接
type ConnectionItem struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id"`
	ConnectionDate   string    `json:"connection_date"`
	User             UserBrief `json:"user"`
	Note             string    `json:"note"`
	RequestDirection string    `json:"request_direction"`
}

// RemoveConnectionResponse 移除连接响应
type RemoveConnectionResponse struct {
	ConnectionID int64 `json:"connection_id"`
}

// NotificationCountResponse 未读请求数
type NotificationCountResponse struct {
	UnreadCount int64  `json:"unread_count"`
	Message     string `json:"message"`
}

// ==================== 转换函数 ====================

// ConvertUserBrief 用户 -> 展示信息，wallets 为 userID -> 钱包地址
func ConvertUserBrief(u *model.User, userID int64, wallets map[int64]string) UserBrief {
	brief := UserBrief{ID: userID}
	if u != nil {
		brief.Name = u.Name
		brief.Username = u.Username
		brief.PhotoURL = u.PhotoUrl
	}
	if addr, ok := wallets[userID]; ok {
		a := addr
		brief.WalletAddress = &a
	}
	return brief
}

// FormatAmount 金额固定 6 位小数，NULL 返回 nil
func FormatAmount(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(6)
	return &s
}

// ConvertRequestDetail 请求模型 -> 详情 DTO
func ConvertRequestDetail(r *model.NetworkingRequest, wallets map[int64]string) *NetworkingRequestDetail {
	if r == nil {
		return nil
	}
	return &NetworkingRequestDetail{
		ID:                  r.Id,
		RequestID:           r.RequestId,
		Sender:              r.SenderId,
		Receiver:            r.ReceiverId,
		SenderDetails:       ConvertUserBrief(r.Sender, r.SenderId, wallets),
		ReceiverDetails:     ConvertUserBrief(r.Receiver, r.ReceiverId, wallets),
		NoteContent:         r.NoteContent,
		Status:              string(r.Status),
		SenderWallet:        r.SenderWallet,
		ReceiverWallet:      r.ReceiverWallet,
		EscrowAccount:       r.EscrowAccount,
		TxSignature:         r.TxSignature,
		TransactionID:       r.TransactionId,
		AmountStaked:        FormatAmount(r.AmountStaked),
		EventID:             r.EventId,
		IsRefundDelayed:     r.IsRefundDelayed,
		RefundTransactionID: r.RefundTransactionId,
		RefundedAt:          util.FormatTimePtrRFC3339(r.RefundedAt),
		CreatedDate:         util.FormatTimeRFC3339(r.CreatedDate),
		UpdatedDate:         util.FormatTimeRFC3339(r.UpdatedDate),
	}
}

// ConvertSentItem 发出的请求，viewer 为当前用户
func ConvertSentItem(r *model.NetworkingRequest, viewer int64, wallets map[int64]string) *SentRequestItem {
	return &SentRequestItem{
		NetworkingRequestDetail: ConvertRequestDetail(r, wallets),
		RequestDirection:        directionOf(r, viewer),
	}
}

func directionOf(r *model.NetworkingRequest, viewer int64) string {
	if r.SentBy(viewer) {
		return DirectionSent
	}
	return DirectionReceived
}

// ConvertConnection 连接 -> 对方视角的 DTO
// 连接时间取 accepted 时写入的 updated_date
func ConvertConnection(r *model.NetworkingRequest, viewer int64, wallets map[int64]string) *ConnectionItem {
	other, otherID := r.Counterpart(viewer)
	return &ConnectionItem{
		ID:               r.Id,
		RequestID:        r.RequestId,
		ConnectionDate:   util.FormatTimeRFC3339(r.UpdatedDate),
		User:             ConvertUserBrief(other, otherID, wallets),
		Note:             r.NoteContent,
		RequestDirection: directionOf(r, viewer),
	}
}
