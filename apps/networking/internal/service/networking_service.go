package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/mq"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/consts"
	"NetworkingServer/model"
	"NetworkingServer/pkg/id"
	"NetworkingServer/pkg/logger"

	"github.com/shopspring/decimal"
)

// maxRequestIDAttempts request_id 冲突时最多重新生成的次数
const maxRequestIDAttempts = 5

// maxAmountStaked decimal(10,6) 可表示的最大金额
var maxAmountStaked = decimal.RequireFromString("9999.999999")

// networkingServiceImpl 社交请求服务实现
type networkingServiceImpl struct {
	tx          repository.ITransactor
	requestRepo repository.INetworkingRepository
	userRepo    repository.IUserRepository
	eventRepo   repository.IEventRepository
	spamRepo    repository.ISpamRepository
	walletRepo  repository.IWalletRepository
	publisher   mq.Publisher
}

// NewNetworkingService 创建社交请求服务实例
func NewNetworkingService(
	tx repository.ITransactor,
	requestRepo repository.INetworkingRepository,
	userRepo repository.IUserRepository,
	eventRepo repository.IEventRepository,
	spamRepo repository.ISpamRepository,
	walletRepo repository.IWalletRepository,
	publisher mq.Publisher,
) NetworkingService {
	if publisher == nil {
		publisher = mq.Nop{}
	}
	return &networkingServiceImpl{
		tx:          tx,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		spamRepo:    spamRepo,
		walletRepo:  walletRepo,
		publisher:   publisher,
	}
}

// SendRequest 发起请求
// 业务流程：
//  1. 校验质押金额格式
//  2. 接收方存在
//  3. 不能向自己发起
//  4. 双方之间（不分方向）没有 pending 请求
//  5. 双方之间（不分方向）没有 accepted 请求
//  6. 发送方未被封禁
//  7. 关联活动存在（可选）
//  8. 分配 request_id 并插入，request_id 冲突时重新生成
//
// 并发下第 4 步的检查可能同时通过，由 pending_pair 唯一索引兜底
//
// 错误码映射：
//   - CodeParamError: 金额非法
//   - CodeUserNotFound: 接收方不存在
//   - CodeCannotRequestSelf / CodeRequestAlreadyExists / CodeAlreadyConnected / CodeSenderBanned
//   - CodeEventNotFound: 活动不存在
func (s *networkingServiceImpl) SendRequest(ctx context.Context, senderID int64, req *dto.SendRequest) (*dto.NetworkingRequestDetail, error) {
	// 1. 金额
	if err := validateAmount(req.AmountStaked); err != nil {
		return nil, err
	}

	// 2. 接收方
	if _, err := s.userRepo.GetByID(ctx, req.Receiver); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewErrorf(consts.CodeUserNotFound, "User with ID %d does not exist", req.Receiver)
		}
		logger.Error(ctx, "查询接收方失败", logger.Int64("receiver_id", req.Receiver), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	// 3. 自己
	if senderID == req.Receiver {
		return nil, NewError(consts.CodeCannotRequestSelf)
	}

	// 4. pending
	pending, err := s.requestRepo.ExistsBetween(ctx, senderID, req.Receiver, model.StatusPending)
	if err != nil {
		logger.Error(ctx, "检查待处理请求失败", logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	if pending {
		return nil, NewError(consts.CodeRequestAlreadyExists)
	}

	// 5. accepted
	connected, err := s.requestRepo.ExistsBetween(ctx, senderID, req.Receiver, model.StatusAccepted)
	if err != nil {
		logger.Error(ctx, "检查连接关系失败", logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	if connected {
		return nil, NewError(consts.CodeAlreadyConnected)
	}

	// 6. 封禁
	banned, err := s.spamRepo.IsBanned(ctx, senderID)
	if err != nil {
		logger.Error(ctx, "查询封禁状态失败", logger.Int64("sender_id", senderID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	if banned {
		return nil, NewError(consts.CodeSenderBanned)
	}

	// 7. 活动
	if req.EventID != nil {
		if _, err := s.eventRepo.GetByID(ctx, *req.EventID); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return nil, NewError(consts.CodeEventNotFound)
			}
			logger.Error(ctx, "查询活动失败", logger.Int64("event_id", *req.EventID), logger.ErrorField("error", err))
			return nil, internalError(err)
		}
	}

	// 8. 插入
	row, err := s.insertWithUniqueID(ctx, senderID, req)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "社交请求已创建",
		logger.Int64("id", row.Id),
		logger.String("request_id", row.RequestId),
		logger.Int64("sender_id", senderID),
		logger.Int64("receiver_id", row.ReceiverId),
	)

	evt := eventFor(mq.EventRequestCreated, row)
	evt.ActorID = senderID
	s.publisher.Publish(ctx, evt)

	return s.detail(ctx, row.Id)
}

// insertWithUniqueID 插入请求
// 唯一键冲突有两种来源：request_id 被占用时换一个重试；否则是并发的 pending 冲突
func (s *networkingServiceImpl) insertWithUniqueID(ctx context.Context, senderID int64, req *dto.SendRequest) (*model.NetworkingRequest, error) {
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = id.GenerateRequestID()
	}

	for attempt := 0; attempt < maxRequestIDAttempts; attempt++ {
		taken, err := s.requestRepo.RequestIDExists(ctx, requestID)
		if err != nil {
			logger.Error(ctx, "检查 request_id 失败", logger.ErrorField("error", err))
			return nil, internalError(err)
		}
		if taken {
			requestID = id.GenerateRequestID()
			continue
		}

		row := buildRequest(senderID, requestID, req)
		err = s.requestRepo.Create(ctx, row)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.Error(ctx, "创建社交请求失败", logger.String("request_id", requestID), logger.ErrorField("error", err))
			return nil, internalError(err)
		}

		taken, err = s.requestRepo.RequestIDExists(ctx, requestID)
		if err != nil {
			logger.Error(ctx, "检查 request_id 失败", logger.ErrorField("error", err))
			return nil, internalError(err)
		}
		if !taken {
			return nil, NewError(consts.CodeRequestAlreadyExists)
		}
		requestID = id.GenerateRequestID()
	}

	logger.Error(ctx, "request_id 分配失败", logger.Int("attempts", maxRequestIDAttempts))
	return nil, internalError(fmt.Errorf("request id allocation exhausted after %d attempts", maxRequestIDAttempts))
}

func buildRequest(senderID int64, requestID string, req *dto.SendRequest) *model.NetworkingRequest {
	row := &model.NetworkingRequest{
		RequestId:      requestID,
		SenderId:       senderID,
		ReceiverId:     req.Receiver,
		NoteContent:    req.NoteContent,
		SenderWallet:   req.SenderWallet,
		ReceiverWallet: req.ReceiverWallet,
		EscrowAccount:  req.EscrowAccount,
		TxSignature:    req.TxSignature,
		TransactionId:  req.TransactionID,
		EventId:        req.EventID,
	}
	if req.AmountStaked != nil {
		row.AmountStaked = decimal.NewNullDecimal(*req.AmountStaked)
	}
	return row
}

// validateAmount 质押金额：非负、最多 6 位小数、不超过 decimal(10,6) 上限
func validateAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	if amount.IsNegative() {
		return NewErrorf(consts.CodeParamError, "amount_staked must not be negative")
	}
	if !amount.Equal(amount.Round(6)) {
		return NewErrorf(consts.CodeParamError, "amount_staked allows at most 6 decimal places")
	}
	if amount.GreaterThan(maxAmountStaked) {
		return NewErrorf(consts.CodeParamError, "amount_staked must not exceed %s", maxAmountStaked.String())
	}
	return nil
}

// Respond 接收方响应
// 业务流程：
//  1. 校验目标状态
//  2. 事务内：条件更新（本人收到且仍为 pending），spam 时累加发送方举报台账
//  3. spam 时单独标记延迟退款
//  4. 返回最新详情
//
// 请求不存在、不属于当前用户、已被处理统一返回 CodeRequestNotFound
func (s *networkingServiceImpl) Respond(ctx context.Context, responderID, requestID int64, status string) (*dto.NetworkingRequestDetail, error) {
	// 1. 状态
	target := model.RequestStatus(strings.ToLower(strings.TrimSpace(status)))
	if !model.StatusPending.CanTransition(target) {
		return nil, NewError(consts.CodeInvalidResponseStatus)
	}

	// 2. 条件更新 + 台账
	var report *model.SpamReport
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		ok, err := s.requestRepo.Respond(txCtx, requestID, responderID, target)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(consts.CodeRequestNotFound)
		}
		if target != model.StatusSpam {
			return nil
		}

		req, err := s.requestRepo.GetByID(txCtx, requestID)
		if err != nil {
			return err
		}
		report, err = s.spamRepo.Increment(txCtx, req.SenderId)
		return err
	})
	if err != nil {
		var biz *BizError
		if errors.As(err, &biz) {
			return nil, biz
		}
		logger.Error(ctx, "响应社交请求失败",
			logger.Int64("id", requestID),
			logger.String("status", string(target)),
			logger.ErrorField("error", err),
		)
		return nil, internalError(err)
	}

	// 3. 延迟退款标记，失败只影响退款，不回滚响应
	if target == model.StatusSpam {
		if err := s.requestRepo.MarkRefundDelayed(ctx, requestID); err != nil {
			logger.Error(ctx, "标记延迟退款失败", logger.Int64("id", requestID), logger.ErrorField("error", err))
		}
		if report != nil && report.IsBanned {
			logger.Warn(ctx, "发送方已被封禁",
				logger.Int64("user_id", report.ReportedUserId),
				logger.Int("report_count", report.ReportCount),
			)
		}
	}

	// 4. 详情
	detail, err := s.detail(ctx, requestID)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "社交请求已响应",
		logger.Int64("id", requestID),
		logger.Int64("responder_id", responderID),
		logger.String("status", string(target)),
	)

	evt := mq.Event{
		Type:       mq.EventRequestResponded,
		ID:         detail.ID,
		RequestID:  detail.RequestID,
		SenderID:   detail.Sender,
		ReceiverID: detail.Receiver,
		Status:     detail.Status,
		ActorID:    responderID,
	}
	if report != nil {
		evt.ReportCount = report.ReportCount
		evt.IsBanned = report.IsBanned
	}
	s.publisher.Publish(ctx, evt)

	return detail, nil
}

// RemoveConnection 移除连接
// 只有 accepted 且当前用户为一方时可以移除，否则返回 CodeConnectionNotFound
func (s *networkingServiceImpl) RemoveConnection(ctx context.Context, userID, connectionID int64) (*dto.RemoveConnectionResponse, error) {
	ok, err := s.requestRepo.Remove(ctx, connectionID, userID)
	if err != nil {
		logger.Error(ctx, "移除连接失败", logger.Int64("id", connectionID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	if !ok {
		return nil, NewError(consts.CodeConnectionNotFound)
	}

	logger.Info(ctx, "连接已移除", logger.Int64("id", connectionID), logger.Int64("user_id", userID))

	if row, err := s.requestRepo.GetByID(ctx, connectionID); err == nil {
		evt := eventFor(mq.EventRequestRemoved, row)
		evt.ActorID = userID
		s.publisher.Publish(ctx, evt)
	} else {
		logger.Warn(ctx, "读取已移除连接失败，跳过事件", logger.Int64("id", connectionID), logger.ErrorField("error", err))
	}

	return &dto.RemoveConnectionResponse{ConnectionID: connectionID}, nil
}

// ListReceived 收到的待处理请求
func (s *networkingServiceImpl) ListReceived(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.NetworkingRequestDetail], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	rows, total, err := s.requestRepo.ListReceivedPending(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询收到的请求失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	wallets, err := s.walletsFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.NetworkingRequestDetail, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ConvertRequestDetail(row, wallets))
	}
	return &PageResult[*dto.NetworkingRequestDetail]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListSent 发出的全部请求
func (s *networkingServiceImpl) ListSent(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.SentRequestItem], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	rows, total, err := s.requestRepo.ListSent(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询发出的请求失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	wallets, err := s.walletsFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.SentRequestItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ConvertSentItem(row, userID, wallets))
	}
	return &PageResult[*dto.SentRequestItem]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListConnections 已建立的连接
func (s *networkingServiceImpl) ListConnections(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.ConnectionItem], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	rows, total, err := s.requestRepo.ListConnections(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询连接失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	wallets, err := s.walletsFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ConnectionItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ConvertConnection(row, userID, wallets))
	}
	return &PageResult[*dto.ConnectionItem]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// NotificationCount 未读请求数
func (s *networkingServiceImpl) NotificationCount(ctx context.Context, userID int64) (*dto.NotificationCountResponse, error) {
	n, err := s.requestRepo.CountReceivedPending(ctx, userID)
	if err != nil {
		logger.Error(ctx, "统计未读请求失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	return &dto.NotificationCountResponse{
		UnreadCount: n,
		Message:     unreadMessage(n),
	}, nil
}

func unreadMessage(n int64) string {
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	return fmt.Sprintf("You have %d unread message request%s", n, suffix)
}

// detail 读取请求详情（带双方钱包）
func (s *networkingServiceImpl) detail(ctx context.Context, requestID int64) (*dto.NetworkingRequestDetail, error) {
	row, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		logger.Error(ctx, "读取社交请求失败", logger.Int64("id", requestID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	wallets, err := s.walletsFor(ctx, []*model.NetworkingRequest{row})
	if err != nil {
		return nil, err
	}
	return dto.ConvertRequestDetail(row, wallets), nil
}

// walletsFor 批量查询请求双方的钱包地址
func (s *networkingServiceImpl) walletsFor(ctx context.Context, rows []*model.NetworkingRequest) (map[int64]string, error) {
	seen := make(map[int64]struct{}, len(rows)*2)
	ids := make([]int64, 0, len(rows)*2)
	for _, row := range rows {
		for _, uid := range []int64{row.SenderId, row.ReceiverId} {
			if _, ok := seen[uid]; ok {
				continue
			}
			seen[uid] = struct{}{}
			ids = append(ids, uid)
		}
	}

	wallets, err := s.walletRepo.GetAddresses(ctx, ids)
	if err != nil {
		logger.Error(ctx, "批量查询钱包失败", logger.Int("count", len(ids)), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	return wallets, nil
}

func eventFor(t mq.EventType, row *model.NetworkingRequest) mq.Event {
	evt := mq.Event{
		Type:       t,
		ID:         row.Id,
		RequestID:  row.RequestId,
		SenderID:   row.SenderId,
		ReceiverID: row.ReceiverId,
		Status:     string(row.Status),
	}
	if amount := dto.FormatAmount(row.AmountStaked); amount != nil {
		evt.Amount = *amount
	}
	return evt
}
