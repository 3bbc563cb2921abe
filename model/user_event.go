package model

import (
	"regexp"
	"strings"
	"time"
)

// UserEvent 用户参加的活动，同一用户对同一活动只有一行
// 参会人数即该活动的 UserEvent 行数
type UserEvent struct {
	Id          int64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserId      int64   `gorm:"column:user_id;not null;uniqueIndex:uk_user_event,priority:1;comment:用户"`
	BaseEventId int64   `gorm:"column:base_event_id;not null;uniqueIndex:uk_user_event,priority:2;index;comment:活动"`
	Title       string  `gorm:"column:title;type:varchar(150);not null;default:'';comment:用户自定义标题"`
	Description *string `gorm:"column:description;type:text;comment:描述"`
	Code        string  `gorm:"column:code;type:varchar(100);not null;default:'';comment:活动编码"`

	User      *User      `gorm:"foreignKey:UserId;references:Id"`
	BaseEvent *BaseEvent `gorm:"foreignKey:BaseEventId;references:Id"`
	Base
}

func (UserEvent) TableName() string { return "user_event" }

// UserNetwork 线下扫码结识记录，scanner 扫了 scanned 的二维码
// network_pair 为无序用户对，两人之间（不分方向）最多一条
type UserNetwork struct {
	Id                int64      `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	ScannerId         int64      `gorm:"column:scanner_id;not null;index;comment:扫码方"`
	ScannedId         int64      `gorm:"column:scanned_id;not null;index;comment:被扫方"`
	NetworkPair       string     `gorm:"column:network_pair;type:varchar(64);not null;uniqueIndex;comment:无序用户对"`
	ScannerEventTitle *string    `gorm:"column:scanner_event_title;type:varchar(150);comment:扫码方的活动标题"`
	ScannedEventTitle *string    `gorm:"column:scanned_event_title;type:varchar(150);comment:被扫方的活动标题"`
	BaseEventId       *int64     `gorm:"column:base_event_id;index;comment:结识的活动(可空)"`
	MeetingDate       time.Time  `gorm:"column:meeting_date;not null;comment:结识时间"`

	Scanner   *User      `gorm:"foreignKey:ScannerId;references:Id"`
	Scanned   *User      `gorm:"foreignKey:ScannedId;references:Id"`
	BaseEvent *BaseEvent `gorm:"foreignKey:BaseEventId;references:Id;constraint:OnDelete:SET NULL"`
	Base
}

func (UserNetwork) TableName() string { return "user_network" }

// Other 返回 viewer 在该记录中的对方
func (n *UserNetwork) Other(viewer int64) (*User, int64) {
	if n.ScannerId == viewer {
		return n.Scanned, n.ScannedId
	}
	return n.Scanner, n.ScannerId
}

// HasParty userID 是否为记录的一方
func (n *UserNetwork) HasParty(userID int64) bool {
	return n.ScannerId == userID || n.ScannedId == userID
}

// MeetingInformation 结识记录的会面笔记，每条结识记录一行
type MeetingInformation struct {
	Id                     int64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	NetworkId              int64   `gorm:"column:network_id;not null;uniqueIndex;comment:结识记录"`
	SummaryNote            string  `gorm:"column:summary_note;type:text;not null;comment:会面总结"`
	InformationSavedUserId *int64  `gorm:"column:information_saved_user_id;comment:最后保存笔记的用户"`

	Network *UserNetwork    `gorm:"foreignKey:NetworkId;references:Id;constraint:OnDelete:CASCADE"`
	Images  []*MeetingImage `gorm:"foreignKey:MeetingInformationId;references:Id;constraint:OnDelete:CASCADE"`
	Base
}

func (MeetingInformation) TableName() string { return "meeting_information" }

// MeetingImage 会面合影与备注，image 为客户端上传后的地址或 data URI
type MeetingImage struct {
	Id                   int64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	MeetingInformationId int64   `gorm:"column:meeting_information_id;not null;index;comment:会面笔记"`
	Note                 *string `gorm:"column:note;type:text;comment:备注"`
	Image                *string `gorm:"column:image;type:text;comment:图片"`
	Base
}

func (MeetingImage) TableName() string { return "meeting_image" }

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NormalizeCode 去掉非字母数字后转大写
func NormalizeCode(raw string) string {
	return strings.ToUpper(nonAlnum.ReplaceAllString(raw, ""))
}

// EventCode 用户创建活动时的编码：标题_城市
func EventCode(title, city string) string {
	return NormalizeCode(title) + "_" + NormalizeCode(city)
}
