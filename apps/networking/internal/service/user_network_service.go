package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/consts"
	"NetworkingServer/model"
	"NetworkingServer/pkg/logger"
)

// userNetworkServiceImpl 扫码结识服务实现
type userNetworkServiceImpl struct {
	tx          repository.ITransactor
	networkRepo repository.IUserNetworkRepository
	userRepo    repository.IUserRepository
	eventRepo   repository.IEventRepository
	now         func() time.Time
}

// NewUserNetworkService 创建扫码结识服务实例
func NewUserNetworkService(
	tx repository.ITransactor,
	networkRepo repository.IUserNetworkRepository,
	userRepo repository.IUserRepository,
	eventRepo repository.IEventRepository,
) UserNetworkService {
	return &userNetworkServiceImpl{
		tx:          tx,
		networkRepo: networkRepo,
		userRepo:    userRepo,
		eventRepo:   eventRepo,
		now:         time.Now,
	}
}

// Create 扫码结识
// 业务流程：
//  1. 不能扫自己，被扫方存在
//  2. 关联活动存在（可选）
//  3. 两人之间已有记录（不分方向）时原样返回
//  4. 同一事务内：扫码方未参加活动时自动参加，读取双方参会标题，插入记录与空白笔记
//
// 并发扫码由 network_pair 唯一索引兜底，冲突时读回已有记录
func (s *userNetworkServiceImpl) Create(ctx context.Context, scannerID int64, req *dto.CreateNetworkRequest) (*dto.CreateNetworkResponse, error) {
	if req.ScannedUserID == scannerID {
		return nil, NewError(consts.CodeCannotScanSelf)
	}
	if _, err := s.userRepo.GetByID(ctx, req.ScannedUserID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewErrorf(consts.CodeUserNotFound, "Scanned user does not exist.")
		}
		logger.Error(ctx, "查询被扫用户失败", logger.Int64("scanned_id", req.ScannedUserID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	var event *model.BaseEvent
	if req.BaseEventID != nil {
		e, err := s.eventRepo.GetByID(ctx, *req.BaseEventID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return nil, NewError(consts.CodeEventNotFound)
			}
			logger.Error(ctx, "查询活动失败", logger.Int64("event_id", *req.BaseEventID), logger.ErrorField("error", err))
			return nil, internalError(err)
		}
		event = e
	}

	existing, err := s.networkRepo.FindBetween(ctx, scannerID, req.ScannedUserID)
	switch {
	case err == nil:
		return s.respond(ctx, scannerID, existing.Id, false)
	case !errors.Is(err, repository.ErrRecordNotFound):
		logger.Error(ctx, "查询结识记录失败", logger.Int64("scanner_id", scannerID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	network := &model.UserNetwork{
		ScannerId:   scannerID,
		ScannedId:   req.ScannedUserID,
		MeetingDate: s.now().UTC(),
		Base:        model.Base{IsActive: true},
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if event != nil {
			network.BaseEventId = &event.Id
			scannerTitle, err := s.ensureAttendance(ctx, scannerID, event)
			if err != nil {
				return err
			}
			network.ScannerEventTitle = &scannerTitle
			ue, err := s.eventRepo.GetAttendance(ctx, req.ScannedUserID, event.Id)
			switch {
			case err == nil:
				network.ScannedEventTitle = &ue.Title
			case !errors.Is(err, repository.ErrRecordNotFound):
				return err
			}
		}
		return s.networkRepo.Create(ctx, network)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			raced, ferr := s.networkRepo.FindBetween(ctx, scannerID, req.ScannedUserID)
			if ferr == nil {
				return s.respond(ctx, scannerID, raced.Id, false)
			}
			err = ferr
		}
		logger.Error(ctx, "创建结识记录失败",
			logger.Int64("scanner_id", scannerID),
			logger.Int64("scanned_id", req.ScannedUserID),
			logger.ErrorField("error", err),
		)
		return nil, internalError(err)
	}

	logger.Info(ctx, "结识记录已创建",
		logger.Int64("network_id", network.Id),
		logger.Int64("scanner_id", scannerID),
		logger.Int64("scanned_id", req.ScannedUserID),
	)
	return s.respond(ctx, scannerID, network.Id, true)
}

// ensureAttendance 返回用户在活动中的参会标题，未参加时以活动名参加
func (s *userNetworkServiceImpl) ensureAttendance(ctx context.Context, userID int64, event *model.BaseEvent) (string, error) {
	ue, err := s.eventRepo.GetAttendance(ctx, userID, event.Id)
	if err == nil {
		return ue.Title, nil
	}
	if !errors.Is(err, repository.ErrRecordNotFound) {
		return "", err
	}

	title := event.Code
	if event.Name != nil && *event.Name != "" {
		title = *event.Name
	}
	if err := s.eventRepo.Join(ctx, &model.UserEvent{UserId: userID, BaseEventId: event.Id, Title: title, Code: event.Code}); err != nil {
		return "", err
	}
	return title, nil
}

// respond 读回带双方用户的记录并转换
func (s *userNetworkServiceImpl) respond(ctx context.Context, viewer, networkID int64, created bool) (*dto.CreateNetworkResponse, error) {
	n, err := s.networkRepo.GetByID(ctx, networkID)
	if err != nil {
		logger.Error(ctx, "读取结识记录失败", logger.Int64("network_id", networkID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	counts, err := s.countFor(ctx, n)
	if err != nil {
		return nil, internalError(err)
	}
	return &dto.CreateNetworkResponse{
		NetworkItem: dto.ConvertNetwork(n, viewer, counts, s.now()),
		Created:     created,
	}, nil
}

// List 结识记录与筛选项
func (s *userNetworkServiceImpl) List(ctx context.Context, userID int64, eventTitle string, page, pageSize int) (*dto.NetworkList, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	titles, err := s.eventRepo.JoinedTitles(ctx, userID)
	if err != nil {
		logger.Error(ctx, "查询参会标题失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, 0, internalError(err)
	}
	rows, total, err := s.networkRepo.List(ctx, userID, strings.TrimSpace(eventTitle), page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询结识记录失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, 0, internalError(err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if row.BaseEventId != nil {
			ids = append(ids, *row.BaseEventId)
		}
	}
	counts, err := s.eventRepo.CountAttendees(ctx, ids)
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.ErrorField("error", err))
		return nil, 0, internalError(err)
	}

	now := s.now()
	out := &dto.NetworkList{
		Filters:     dto.NetworkFilters{Events: titles},
		Connections: make([]*dto.NetworkItem, 0, len(rows)),
	}
	if out.Filters.Events == nil {
		out.Filters.Events = []string{}
	}
	for _, row := range rows {
		out.Connections = append(out.Connections, dto.ConvertNetwork(row, userID, counts, now))
	}
	return out, total, nil
}

// ConnectedUser 与某位用户的结识详情（用户、记录、会面笔记）
func (s *userNetworkServiceImpl) ConnectedUser(ctx context.Context, userID, otherID int64) (*dto.ConnectedUserDetail, error) {
	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewError(consts.CodeUserNotFound)
		}
		logger.Error(ctx, "查询用户失败", logger.Int64("user_id", otherID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	found, err := s.networkRepo.FindBetween(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewError(consts.CodeNetworkNotFound)
		}
		logger.Error(ctx, "查询结识记录失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	n, err := s.networkRepo.GetByID(ctx, found.Id)
	if err != nil {
		logger.Error(ctx, "读取结识记录失败", logger.Int64("network_id", found.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	info, err := s.networkRepo.GetMeeting(ctx, n.Id)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		logger.Error(ctx, "查询会面笔记失败", logger.Int64("network_id", n.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	counts, err := s.countFor(ctx, n)
	if err != nil {
		return nil, internalError(err)
	}
	return &dto.ConnectedUserDetail{
		User:    dto.ConvertUserBrief(other, otherID, nil),
		Network: dto.ConvertNetwork(n, userID, counts, s.now()),
		Meeting: dto.ConvertMeeting(info, n),
	}, nil
}

// SaveMeeting 保存会面笔记
// 记录不存在、调用方不是一方、活动不匹配都按没有有效结识处理
func (s *userNetworkServiceImpl) SaveMeeting(ctx context.Context, userID int64, req *dto.SaveMeetingRequest) (*dto.MeetingDetail, error) {
	n, err := s.partyNetwork(ctx, userID, req.NetworkID)
	if err != nil {
		return nil, err
	}
	if n == nil || n.BaseEventId == nil || *n.BaseEventId != req.BaseEventID {
		return nil, NewErrorf(consts.CodeNetworkNotFound, "No valid connection found for this event.")
	}

	info, err := s.networkRepo.SaveMeeting(ctx, n.Id, userID, req.SummaryNote, dto.ConvertMeetingImages(req.MeetingImages))
	if err != nil {
		logger.Error(ctx, "保存会面笔记失败", logger.Int64("network_id", n.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	logger.Info(ctx, "会面笔记已保存",
		logger.Int64("network_id", n.Id),
		logger.Int64("user_id", userID),
		logger.Int("images", len(info.Images)),
	)
	return dto.ConvertMeeting(info, n), nil
}

// GetMeeting 读取会面笔记，只有带活动的结识记录才有笔记
func (s *userNetworkServiceImpl) GetMeeting(ctx context.Context, userID, networkID int64) (*dto.MeetingDetail, error) {
	n, err := s.partyNetwork(ctx, userID, networkID)
	if err != nil {
		return nil, err
	}
	if n == nil || n.BaseEventId == nil {
		return nil, NewErrorf(consts.CodeNetworkNotFound, "No connection found between users.")
	}

	info, err := s.networkRepo.GetMeeting(ctx, n.Id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewErrorf(consts.CodeNetworkNotFound, "No connection found between users.")
		}
		logger.Error(ctx, "查询会面笔记失败", logger.Int64("network_id", n.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	return dto.ConvertMeeting(info, n), nil
}

// partyNetwork 记录不存在或 userID 不是一方时返回 nil, nil
func (s *userNetworkServiceImpl) partyNetwork(ctx context.Context, userID, networkID int64) (*model.UserNetwork, error) {
	n, err := s.networkRepo.GetByID(ctx, networkID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "读取结识记录失败", logger.Int64("network_id", networkID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	if !n.HasParty(userID) {
		return nil, nil
	}
	return n, nil
}

// countFor 单条记录所在活动的参会人数
func (s *userNetworkServiceImpl) countFor(ctx context.Context, n *model.UserNetwork) (map[int64]int64, error) {
	if n.BaseEventId == nil {
		return nil, nil
	}
	counts, err := s.eventRepo.CountAttendees(ctx, []int64{*n.BaseEventId})
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.Int64("event_id", *n.BaseEventId), logger.ErrorField("error", err))
		return nil, err
	}
	return counts, nil
}
