package service

import (
	"context"

	"NetworkingServer/apps/networking/internal/dto"
)

// PageResult 分页结果
type PageResult[T any] struct {
	Items    []T
	Total    int64
	Page     int
	PageSize int
}

// NetworkingService 社交请求服务接口
// 职责：
//   - 发起、响应、移除带质押的社交请求
//   - 列出收到/发出的请求与已建立的连接
//   - 响应为 spam 时累加举报台账并标记延迟退款
type NetworkingService interface {
	// SendRequest 发起请求
	// senderID: 当前用户
	// 返回: 新建请求详情
	SendRequest(ctx context.Context, senderID int64, req *dto.SendRequest) (*dto.NetworkingRequestDetail, error)

	// Respond 接收方响应 pending 请求
	// status: accepted | rejected | spam
	Respond(ctx context.Context, responderID, requestID int64, status string) (*dto.NetworkingRequestDetail, error)

	// RemoveConnection 任一方移除已建立的连接
	RemoveConnection(ctx context.Context, userID, connectionID int64) (*dto.RemoveConnectionResponse, error)

	// ListReceived 收到的待处理请求
	ListReceived(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.NetworkingRequestDetail], error)

	// ListSent 发出的全部请求
	ListSent(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.SentRequestItem], error)

	// ListConnections 已建立的连接（对方视角）
	ListConnections(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.ConnectionItem], error)

	// NotificationCount 未读（待处理）请求数
	NotificationCount(ctx context.Context, userID int64) (*dto.NotificationCountResponse, error)
}

// SpamService 举报台账服务接口（运营）
type SpamService interface {
	// List 台账列表与汇总
	List(ctx context.Context, page, pageSize int) (*dto.SpamReportList, int64, error)
	// SetBan 手动封禁/解封
	SetBan(ctx context.Context, req *dto.SetBanRequest) (*dto.SetBanResponse, error)
}

// WalletService 钱包服务接口
type WalletService interface {
	// Connect 绑定或替换钱包
	Connect(ctx context.Context, userID int64, address string) (*dto.WalletResponse, error)
	// HealthCheck 当前用户的钱包状态
	HealthCheck(ctx context.Context, userID int64) (*dto.HealthCheckResponse, error)
}

// TransactionService 链上交易服务接口
type TransactionService interface {
	// Status 校验交易是否已确认且收款方为平台钱包
	Status(ctx context.Context, txID string) (*dto.TransactionStatusResponse, error)
	// Mock 生成测试交易，仅测试模式可用
	Mock(ctx context.Context, req *dto.MockTransactionRequest) (*dto.MockTransactionResponse, error)
}

// EventService 活动与参会服务接口
// 职责：
//   - 用户自建活动（同名同城复用同一活动）并参加
//   - 按活动编码加入
//   - 参会者检索，运营额外可见举报台账
type EventService interface {
	// Create 创建或复用活动并参加，isStaff 决定是否标记为运营活动
	Create(ctx context.Context, userID int64, isStaff bool, req *dto.CreateEventRequest) (*dto.UserEventItem, error)
	// JoinByCode 按编码加入活动，已参加时 AlreadyAttended=true
	JoinByCode(ctx context.Context, userID int64, code string) (*dto.JoinEventResponse, error)
	// ListJoined 当前用户参加的活动
	ListJoined(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.UserEventItem], error)
	// ListAdminEvents 运营创建的活动
	ListAdminEvents(ctx context.Context, page, pageSize int) (*PageResult[*dto.EventSummary], error)
	// Attendees 参会者检索，不含当前用户
	Attendees(ctx context.Context, userID int64, isStaff bool, q *dto.AttendeeQuery) (*PageResult[*dto.AttendeeItem], error)
}

// UserNetworkService 扫码结识服务接口
// 职责：
//   - 扫码建立结识记录（两人之间最多一条）
//   - 列出结识记录与筛选项
//   - 读写会面笔记
type UserNetworkService interface {
	// Create 扫码结识，已有记录时原样返回且 Created=false
	Create(ctx context.Context, scannerID int64, req *dto.CreateNetworkRequest) (*dto.CreateNetworkResponse, error)
	// List 结识记录，eventTitle 为当前用户自己的参会标题
	List(ctx context.Context, userID int64, eventTitle string, page, pageSize int) (*dto.NetworkList, int64, error)
	// ConnectedUser 与某位用户的结识详情
	ConnectedUser(ctx context.Context, userID, otherID int64) (*dto.ConnectedUserDetail, error)
	// SaveMeeting 保存会面笔记，调用方必须是记录一方且活动匹配
	SaveMeeting(ctx context.Context, userID int64, req *dto.SaveMeetingRequest) (*dto.MeetingDetail, error)
	// GetMeeting 读取会面笔记，调用方必须是记录一方
	GetMeeting(ctx context.Context, userID, networkID int64) (*dto.MeetingDetail, error)
}
