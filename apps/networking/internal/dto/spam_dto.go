package dto

import (
	"NetworkingServer/model"
	"NetworkingServer/pkg/util"
)

// SetBanRequest 运营手动封禁/解封
// ban 缺省为 false，即解封
type SetBanRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
	Ban    bool  `json:"ban"`
}

// SetBanResponse 封禁结果
type SetBanResponse struct {
	UserID   int64 `json:"user_id"`
	IsBanned bool  `json:"is_banned"`
}

// SpamReportItem 台账行
type SpamReportItem struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Name        *string `json:"user_name"`
	Username    *string `json:"user_username"`
	ReportCount int     `json:"report_count"`
	IsBanned    bool    `json:"is_banned"`
	LastUpdated string  `json:"last_updated"`
}

// SpamReportList 台账列表与汇总
type SpamReportList struct {
	Reports      []*SpamReportItem `json:"reports"`
	TotalBanned  int64             `json:"total_banned"`
	TotalReports int64             `json:"total_reports"`
}

// ConvertSpamReport 台账模型 -> DTO
func ConvertSpamReport(r *model.SpamReport) *SpamReportItem {
	item := &SpamReportItem{
		ID:          r.Id,
		UserID:      r.ReportedUserId,
		ReportCount: r.ReportCount,
		IsBanned:    r.IsBanned,
		LastUpdated: util.FormatTimeRFC3339(r.UpdatedDate),
	}
	if r.ReportedUser != nil {
		item.Name = r.ReportedUser.Name
		item.Username = r.ReportedUser.Username
	}
	return item
}
