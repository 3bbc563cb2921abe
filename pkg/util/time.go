package util

import "time"

// FormatTimeRFC3339 将时间格式化为 RFC3339（UTC），零值返回空串
func FormatTimeRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatTimePtrRFC3339 同 FormatTimeRFC3339，nil 返回 nil，便于 JSON 输出 null
func FormatTimePtrRFC3339(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := FormatTimeRFC3339(*t)
	return &s
}

// StartOfDayUTC 返回 t 所在自然日（UTC）的零点
// 活动结束日期按“日期”语义比较：结束日期严格早于今天才算已结束
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
