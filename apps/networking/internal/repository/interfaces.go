package repository

import (
	"context"
	"time"

	"NetworkingServer/model"
)

// IUserRepository 用户只读访问
type IUserRepository interface {
	// GetByID 按主键获取未删除用户
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByTelegramID 按 telegram_id 获取未删除用户（认证用）
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	// ListAttendees 参会者检索（启用中的用户，按 id 升序）
	ListAttendees(ctx context.Context, q AttendeeQuery) ([]*model.User, int64, error)
}

// IEventRepository 活动与参会记录
type IEventRepository interface {
	// GetByID 按主键获取未删除活动
	GetByID(ctx context.Context, id int64) (*model.BaseEvent, error)
	// GetByCode 按编码获取启用中的活动
	GetByCode(ctx context.Context, code string) (*model.BaseEvent, error)
	// FindOrCreate 按 code 查找活动，不存在时插入 event；第二个返回值表示是否新建
	FindOrCreate(ctx context.Context, event *model.BaseEvent) (*model.BaseEvent, bool, error)
	// Join 插入参会记录，用户已参加该活动时返回 ErrDuplicateKey
	Join(ctx context.Context, ue *model.UserEvent) error
	// GetAttendance 用户在活动中的参会记录，未参加返回 ErrRecordNotFound
	GetAttendance(ctx context.Context, userID, eventID int64) (*model.UserEvent, error)
	// ListJoined 用户参加的活动（带活动）
	ListJoined(ctx context.Context, userID int64, page, pageSize int) ([]*model.UserEvent, int64, error)
	// ListAdminEvents 运营创建的活动
	ListAdminEvents(ctx context.Context, page, pageSize int) ([]*model.BaseEvent, int64, error)
	// CountAttendees 批量统计参会人数
	CountAttendees(ctx context.Context, eventIDs []int64) (map[int64]int64, error)
	// JoinedTitles 用户参会记录的标题（去重排序）
	JoinedTitles(ctx context.Context, userID int64) ([]string, error)
}

// IUserNetworkRepository 扫码结识与会面笔记
type IUserNetworkRepository interface {
	// FindBetween 两人之间（不分方向）的结识记录，不存在返回 ErrRecordNotFound
	FindBetween(ctx context.Context, a, b int64) (*model.UserNetwork, error)
	// Create 插入结识记录并创建空白会面笔记，两人之间已有记录时返回 ErrDuplicateKey
	Create(ctx context.Context, n *model.UserNetwork) error
	// GetByID 带双方用户与活动
	GetByID(ctx context.Context, id int64) (*model.UserNetwork, error)
	// List 用户参与的结识记录，eventTitle 非空时按用户自己的参会标题过滤
	List(ctx context.Context, userID int64, eventTitle string, page, pageSize int) ([]*model.UserNetwork, int64, error)
	// GetMeeting 会面笔记（带图片），不存在返回 ErrRecordNotFound
	GetMeeting(ctx context.Context, networkID int64) (*model.MeetingInformation, error)
	// SaveMeeting 写入会面总结并整体替换图片，返回最新笔记
	SaveMeeting(ctx context.Context, networkID, savedBy int64, summary string, images []*model.MeetingImage) (*model.MeetingInformation, error)
}

// IWalletRepository 钱包绑定
type IWalletRepository interface {
	// GetByUserID 获取用户绑定的钱包，未绑定返回 ErrRecordNotFound
	GetByUserID(ctx context.Context, userID int64) (*model.WalletConnection, error)
	// GetAddresses 批量获取钱包地址，未绑定的用户不在结果中
	GetAddresses(ctx context.Context, userIDs []int64) (map[int64]string, error)
	// Upsert 绑定或替换用户钱包，并刷新 last_connected
	// 地址已被其他用户绑定时返回 ErrDuplicateKey
	Upsert(ctx context.Context, userID int64, address string, now time.Time) (*model.WalletConnection, error)
}

// ISpamRepository 垃圾举报台账
type ISpamRepository interface {
	// GetByUserID 获取用户的台账行，不存在返回 ErrRecordNotFound
	GetByUserID(ctx context.Context, userID int64) (*model.SpamReport, error)
	// GetByUserIDs 批量获取台账行，没有台账的用户不在结果中
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*model.SpamReport, error)
	// IsBanned 用户是否被封禁，没有台账行视为未封禁
	IsBanned(ctx context.Context, userID int64) (bool, error)
	// Increment 原子地累加一次举报，达到阈值时置位封禁，返回更新后的台账行
	Increment(ctx context.Context, userID int64) (*model.SpamReport, error)
	// SetBanned 运营手动封禁/解封，台账行不存在时创建
	SetBanned(ctx context.Context, userID int64, banned bool) (*model.SpamReport, error)
	// List 分页列出台账（带被举报用户）
	List(ctx context.Context, page, pageSize int) ([]*model.SpamReport, int64, error)
	// Totals 封禁人数与累计举报次数
	Totals(ctx context.Context) (banned int64, reports int64, err error)
}

// INetworkingRepository 社交请求
type INetworkingRepository interface {
	// Create 插入一条 pending 请求
	// 同一对用户已有 pending 或 request_id 冲突时返回 ErrDuplicateKey
	Create(ctx context.Context, req *model.NetworkingRequest) error
	// GetByID 获取请求（带双方用户）
	GetByID(ctx context.Context, id int64) (*model.NetworkingRequest, error)
	// ExistsBetween 两个用户之间（不分方向）是否存在指定状态的请求
	ExistsBetween(ctx context.Context, a, b int64, status model.RequestStatus) (bool, error)
	// RequestIDExists request_id 是否已被占用
	RequestIDExists(ctx context.Context, requestID string) (bool, error)
	// Respond 条件更新：仅当请求属于 receiverID 且仍为 pending 时迁移到 status
	// 返回 false 表示没有行被更新
	Respond(ctx context.Context, id, receiverID int64, status model.RequestStatus) (bool, error)
	// MarkRefundDelayed 标记 spam 请求待活动结束后退款
	MarkRefundDelayed(ctx context.Context, id int64) error
	// Remove 条件更新：仅当请求为 accepted 且 userID 为一方时迁移到 removed
	Remove(ctx context.Context, id, userID int64) (bool, error)
	// ListReceivedPending 收到的待处理请求
	ListReceivedPending(ctx context.Context, receiverID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error)
	// ListSent 发出的全部请求
	ListSent(ctx context.Context, senderID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error)
	// ListConnections 已建立的连接（任一方向 accepted）
	ListConnections(ctx context.Context, userID int64, page, pageSize int) ([]*model.NetworkingRequest, int64, error)
	// CountReceivedPending 收到的待处理请求数
	CountReceivedPending(ctx context.Context, receiverID int64) (int64, error)
	// ListRefundable 待退款请求：spam、已标记、未退款、关联活动结束日早于 cutoff
	ListRefundable(ctx context.Context, cutoff time.Time, limit int) ([]*model.NetworkingRequest, error)
	// RecordRefundTx 记录已上链、尚未完成记账的退款交易id
	RecordRefundTx(ctx context.Context, id int64, refundTxID string) error
	// CompleteRefund 条件更新：仅当 refund_transaction_id 仍为空时写入退款结果
	CompleteRefund(ctx context.Context, id int64, refundTxID string, refundedAt time.Time) (bool, error)
}
