package dto

import (
	"time"

	"NetworkingServer/model"
	"NetworkingServer/pkg/util"
)

// ==================== 扫码结识相关 DTO ====================

// 当前用户在结识记录中的角色
const (
	RoleScanner = "scanner"
	RoleScanned = "scanned"
)

// CreateNetworkRequest 扫码结识
type CreateNetworkRequest struct {
	ScannedUserID int64  `json:"scanned_user_id" binding:"required,gt=0"`
	BaseEventID   *int64 `json:"base_event_id" binding:"omitempty,gt=0"`
}

// NetworkListQuery 结识列表参数，event 为用户自己参会记录的标题
type NetworkListQuery struct {
	Event string `form:"event" binding:"omitempty,max=150"`
	PageQuery
}

// MeetingImageInput 会面图片
type MeetingImageInput struct {
	Note  *string `json:"note" binding:"omitempty,max=5000"`
	Image *string `json:"image"`
}

// SaveMeetingRequest 保存会面笔记，meeting_images 整体替换
type SaveMeetingRequest struct {
	NetworkID     int64                `json:"network_id" binding:"required,gt=0"`
	BaseEventID   int64                `json:"base_event_id" binding:"required,gt=0"`
	SummaryNote   string               `json:"summary_note" binding:"max=10000"`
	MeetingImages []*MeetingImageInput `json:"meeting_images" binding:"omitempty,max=20,dive"`
}

// NetworkItem 结识记录（对方视角）
type NetworkItem struct {
	ID          int64         `json:"id"`
	Role        string        `json:"role"`
	MeetingDate string        `json:"meeting_date"`
	EventTitle  *string       `json:"event_title"`
	User        UserBrief     `json:"user"`
	BaseEvent   *EventSummary `json:"base_event"`
}

// NetworkFilters 列表筛选项
type NetworkFilters struct {
	Events []string `json:"events"`
}

// NetworkList 结识列表与筛选项
type NetworkList struct {
	Filters     NetworkFilters `json:"filters"`
	Connections []*NetworkItem `json:"connections"`
}

// CreateNetworkResponse 扫码结果，created=false 表示两人之间已有记录
type CreateNetworkResponse struct {
	*NetworkItem
	Created bool `json:"created"`
}

// MeetingImageItem 会面图片
type MeetingImageItem struct {
	ID    int64   `json:"id"`
	Note  *string `json:"note"`
	Image *string `json:"image"`
}

// MeetingDetail 会面笔记
type MeetingDetail struct {
	ID            int64               `json:"id"`
	NetworkID     int64               `json:"network_id"`
	SummaryNote   string              `json:"summary_note"`
	SavedByUserID *int64              `json:"information_saved_user_id"`
	CreatedDate   string              `json:"created_date"`
	UpdatedDate   string              `json:"updated_date"`
	MeetingImages []*MeetingImageItem `json:"meeting_images"`
	ScannerUser   *string             `json:"scanner_user"`
	ScannedUser   *string             `json:"scanned_user"`
}

// ConnectedUserDetail 与某位用户的结识详情
type ConnectedUserDetail struct {
	User    UserBrief      `json:"user"`
	Network *NetworkItem   `json:"network"`
	Meeting *MeetingDetail `json:"meeting_information"`
}

// ==================== 转换函数 ====================

// ConvertNetwork 结识记录 -> viewer 视角的 DTO
// 活动标题取 viewer 自己一侧的标题
func ConvertNetwork(n *model.UserNetwork, viewer int64, attendees map[int64]int64, now time.Time) *NetworkItem {
	other, otherID := n.Other(viewer)
	item := &NetworkItem{
		ID:          n.Id,
		Role:        RoleScanned,
		MeetingDate: util.FormatTimeRFC3339(n.MeetingDate),
		EventTitle:  n.ScannedEventTitle,
		User:        ConvertUserBrief(other, otherID, nil),
		BaseEvent:   ConvertEventSummary(n.BaseEvent, attendees, now),
	}
	if n.ScannerId == viewer {
		item.Role = RoleScanner
		item.EventTitle = n.ScannerEventTitle
	}
	return item
}

// ConvertMeeting 会面笔记 -> DTO，network 用于输出双方用户名（可为 nil）
func ConvertMeeting(info *model.MeetingInformation, network *model.UserNetwork) *MeetingDetail {
	if info == nil {
		return nil
	}
	out := &MeetingDetail{
		ID:            info.Id,
		NetworkID:     info.NetworkId,
		SummaryNote:   info.SummaryNote,
		SavedByUserID: info.InformationSavedUserId,
		CreatedDate:   util.FormatTimeRFC3339(info.CreatedDate),
		UpdatedDate:   util.FormatTimeRFC3339(info.UpdatedDate),
		MeetingImages: make([]*MeetingImageItem, 0, len(info.Images)),
	}
	for _, img := range info.Images {
		out.MeetingImages = append(out.MeetingImages, &MeetingImageItem{ID: img.Id, Note: img.Note, Image: img.Image})
	}
	if network != nil {
		if network.Scanner != nil {
			out.ScannerUser = network.Scanner.Username
		}
		if network.Scanned != nil {
			out.ScannedUser = network.Scanned.Username
		}
	}
	return out
}

// ConvertMeetingImages 请求 -> 模型
func ConvertMeetingImages(in []*MeetingImageInput) []*model.MeetingImage {
	out := make([]*model.MeetingImage, 0, len(in))
	for _, img := range in {
		if img == nil {
			continue
		}
		out = append(out, &model.MeetingImage{Note: img.Note, Image: img.Image})
	}
	return out
}
