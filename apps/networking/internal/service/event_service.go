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

// eventServiceImpl 活动服务实现
type eventServiceImpl struct {
	tx        repository.ITransactor
	eventRepo repository.IEventRepository
	userRepo  repository.IUserRepository
	spamRepo  repository.ISpamRepository
	now       func() time.Time
}

// NewEventService 创建活动服务实例
func NewEventService(
	tx repository.ITransactor,
	eventRepo repository.IEventRepository,
	userRepo repository.IUserRepository,
	spamRepo repository.ISpamRepository,
) EventService {
	return &eventServiceImpl{
		tx:        tx,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		spamRepo:  spamRepo,
		now:       time.Now,
	}
}

// Create 创建或复用活动并参加
// 业务流程：
//  1. 标题去空白，编码 = 归一化标题_归一化城市
//  2. 解析起止日期，结束日不得早于开始日
//  3. 同一事务内按编码查找或创建活动，再插入参会记录
//
// 错误码映射：
//   - CodeParamError: 标题不含字母数字 / 日期非法
//   - CodeEventNotFound: 同编码活动已停用或已删除
//   - CodeEventAlreadyJoined: 已参加该活动
func (s *eventServiceImpl) Create(ctx context.Context, userID int64, isStaff bool, req *dto.CreateEventRequest) (*dto.UserEventItem, error) {
	title := strings.TrimSpace(req.Title)
	city := strings.TrimSpace(req.City)
	if model.NormalizeCode(title) == "" {
		return nil, NewErrorf(consts.CodeParamError, "title must contain letters or digits")
	}

	starting, err := parseDate(req.StartingDate)
	if err != nil {
		return nil, NewErrorf(consts.CodeParamError, "starting_date must be YYYY-MM-DD")
	}
	ending, err := parseDate(req.EndingDate)
	if err != nil {
		return nil, NewErrorf(consts.CodeParamError, "ending_date must be YYYY-MM-DD")
	}
	if starting != nil && ending != nil && ending.Before(*starting) {
		return nil, NewErrorf(consts.CodeParamError, "ending_date must not be before starting_date")
	}

	candidate := &model.BaseEvent{
		Name:           &title,
		Code:           model.EventCode(title, city),
		Address:        req.Address,
		StartingDate:   starting,
		EndingDate:     ending,
		CreatedByAdmin: isStaff,
		Base:           model.Base{IsActive: true},
	}
	if city != "" {
		candidate.City = &city
	}

	var (
		event   *model.BaseEvent
		created bool
		joined  *model.UserEvent
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, created, err = s.eventRepo.FindOrCreate(ctx, candidate)
		if err != nil {
			return err
		}
		if !event.IsActive {
			return NewError(consts.CodeEventNotFound)
		}
		joined = &model.UserEvent{
			UserId:      userID,
			BaseEventId: event.Id,
			Title:       title,
			Description: req.Description,
			Code:        event.Code,
		}
		return s.eventRepo.Join(ctx, joined)
	})
	if err != nil {
		var biz *BizError
		if errors.As(err, &biz) {
			return nil, biz
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewError(consts.CodeEventAlreadyJoined)
		}
		// 同编码活动已被软删除
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewError(consts.CodeEventNotFound)
		}
		logger.Error(ctx, "创建活动失败", logger.Int64("user_id", userID), logger.String("code", candidate.Code), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	if created {
		logger.Info(ctx, "活动已创建",
			logger.Int64("event_id", event.Id),
			logger.String("code", event.Code),
			logger.Bool("created_by_admin", event.CreatedByAdmin),
		)
	}
	logger.Info(ctx, "已参加活动", logger.Int64("user_id", userID), logger.Int64("event_id", event.Id))

	counts, err := s.eventRepo.CountAttendees(ctx, []int64{event.Id})
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.Int64("event_id", event.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	joined.BaseEvent = event
	return dto.ConvertUserEvent(joined, counts, s.now()), nil
}

// JoinByCode 按编码加入活动
// 已参加（含并发重复加入）不视为错误
func (s *eventServiceImpl) JoinByCode(ctx context.Context, userID int64, code string) (*dto.JoinEventResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewErrorf(consts.CodeEventNotFound, "Event not found with this code")
	}

	event, err := s.eventRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewErrorf(consts.CodeEventNotFound, "Event not found with this code")
		}
		logger.Error(ctx, "查询活动失败", logger.String("code", code), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	already := false
	if _, err := s.eventRepo.GetAttendance(ctx, userID, event.Id); err == nil {
		already = true
	} else if !errors.Is(err, repository.ErrRecordNotFound) {
		logger.Error(ctx, "查询参会记录失败", logger.Int64("event_id", event.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	if !already {
		title := event.Code
		if event.Name != nil && *event.Name != "" {
			title = *event.Name
		}
		err := s.eventRepo.Join(ctx, &model.UserEvent{UserId: userID, BaseEventId: event.Id, Title: title, Code: event.Code})
		switch {
		case err == nil:
			logger.Info(ctx, "已按编码参加活动", logger.Int64("user_id", userID), logger.Int64("event_id", event.Id))
		case errors.Is(err, repository.ErrDuplicateKey):
			already = true
		default:
			logger.Error(ctx, "参加活动失败", logger.Int64("event_id", event.Id), logger.ErrorField("error", err))
			return nil, internalError(err)
		}
	}

	counts, err := s.eventRepo.CountAttendees(ctx, []int64{event.Id})
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.Int64("event_id", event.Id), logger.ErrorField("error", err))
		return nil, internalError(err)
	}
	return &dto.JoinEventResponse{
		Event:           dto.ConvertEventSummary(event, counts, s.now()),
		AlreadyAttended: already,
	}, nil
}

// ListJoined 当前用户参加的活动
func (s *eventServiceImpl) ListJoined(ctx context.Context, userID int64, page, pageSize int) (*PageResult[*dto.UserEventItem], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	rows, total, err := s.eventRepo.ListJoined(ctx, userID, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询参会列表失败", logger.Int64("user_id", userID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BaseEventId)
	}
	counts, err := s.eventRepo.CountAttendees(ctx, ids)
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	now := s.now()
	items := make([]*dto.UserEventItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ConvertUserEvent(row, counts, now))
	}
	return &PageResult[*dto.UserEventItem]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListAdminEvents 运营创建的活动
func (s *eventServiceImpl) ListAdminEvents(ctx context.Context, page, pageSize int) (*PageResult[*dto.EventSummary], error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	events, total, err := s.eventRepo.ListAdminEvents(ctx, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询运营活动失败", logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.Id)
	}
	counts, err := s.eventRepo.CountAttendees(ctx, ids)
	if err != nil {
		logger.Error(ctx, "统计参会人数失败", logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	now := s.now()
	items := make([]*dto.EventSummary, 0, len(events))
	for _, e := range events {
		items = append(items, dto.ConvertEventSummary(e, counts, now))
	}
	return &PageResult[*dto.EventSummary]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Attendees 参会者检索
// 运营可见每位用户的举报台账，没有台账时为零值
func (s *eventServiceImpl) Attendees(ctx context.Context, userID int64, isStaff bool, q *dto.AttendeeQuery) (*PageResult[*dto.AttendeeItem], error) {
	if q.Event > 0 {
		if _, err := s.eventRepo.GetByID(ctx, q.Event); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return nil, NewError(consts.CodeEventNotFound)
			}
			logger.Error(ctx, "查询活动失败", logger.Int64("event_id", q.Event), logger.ErrorField("error", err))
			return nil, internalError(err)
		}
	}

	users, total, err := s.userRepo.ListAttendees(ctx, repository.AttendeeQuery{
		EventID:   q.Event,
		ExcludeID: userID,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	if err != nil {
		logger.Error(ctx, "查询参会者失败", logger.Int64("event_id", q.Event), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	var reports map[int64]*model.SpamReport
	if isStaff {
		ids := make([]int64, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.Id)
		}
		if reports, err = s.spamRepo.GetByUserIDs(ctx, ids); err != nil {
			logger.Error(ctx, "查询举报台账失败", logger.ErrorField("error", err))
			return nil, internalError(err)
		}
		if reports == nil {
			reports = map[int64]*model.SpamReport{}
		}
	}

	items := make([]*dto.AttendeeItem, 0, len(users))
	for _, u := range users {
		items = append(items, dto.ConvertAttendee(u, reports))
	}
	page, pageSize := repository.NormalizePage(q.Page, q.PageSize)
	return &PageResult[*dto.AttendeeItem]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// parseDate 空值返回 nil
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
