package service

import (
	"context"
	"errors"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
)

// spamServiceImpl 举报台账服务实现
type spamServiceImpl struct {
	spamRepo repository.ISpamRepository
	userRepo repository.IUserRepository
}

// NewSpamService 创建举报台账服务实例
func NewSpamService(spamRepo repository.ISpamRepository, userRepo repository.IUserRepository) SpamService {
	return &spamServiceImpl{spamRepo: spamRepo, userRepo: userRepo}
}

// List 台账列表与汇总
// 汇总覆盖全表，不受分页影响
func (s *spamServiceImpl) List(ctx context.Context, page, pageSize int) (*dto.SpamReportList, int64, error) {
	rows, total, err := s.spamRepo.List(ctx, page, pageSize)
	if err != nil {
		logger.Error(ctx, "查询举报台账失败", logger.ErrorField("error", err))
		return nil, 0, internalError(err)
	}
	banned, reports, err := s.spamRepo.Totals(ctx)
	if err != nil {
		logger.Error(ctx, "统计举报台账失败", logger.ErrorField("error", err))
		return nil, 0, internalError(err)
	}

	items := make([]*dto.SpamReportItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ConvertSpamReport(row))
	}
	return &dto.SpamReportList{
		Reports:      items,
		TotalBanned:  banned,
		TotalReports: reports,
	}, total, nil
}

// SetBan 手动封禁/解封
// 解封不清零 report_count，之后再被举报一次即重新封禁
func (s *spamServiceImpl) SetBan(ctx context.Context, req *dto.SetBanRequest) (*dto.SetBanResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, NewError(consts.CodeUserNotFound)
		}
		logger.Error(ctx, "查询用户失败", logger.Int64("user_id", req.UserID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	report, err := s.spamRepo.SetBanned(ctx, req.UserID, req.Ban)
	if err != nil {
		logger.Error(ctx, "更新封禁状态失败", logger.Int64("user_id", req.UserID), logger.ErrorField("error", err))
		return nil, internalError(err)
	}

	logger.Info(ctx, "封禁状态已更新",
		logger.Int64("user_id", req.UserID),
		logger.Bool("is_banned", report.IsBanned),
		logger.Int("report_count", report.ReportCount),
	)
	return &dto.SetBanResponse{UserID: req.UserID, IsBanned: report.IsBanned}, nil
}
