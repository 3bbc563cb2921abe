package consts

import "net/http"

// 通用错误码
const (
	// 成功
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	// 参数验证失败
	CodeParamError = 10001 // 参数验证失败
	// 请求体格式错误
	CodeBodyError = 10002 // 请求体格式错误
	// 资源不存在
	CodeResourceNotFound = 10003 // 资源不存在
	// 请求方法不允许
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	// 请求过于频繁
	CodeTooManyRequests = 10005 // 请求过于频繁
	// 请求体过大
	CodeBodyTooLarge = 10006 // 请求体过大
)

// 认证错误 (2xxxx)
const (
	// 未认证
	CodeUnauthorized = 20001 // 未认证
	// Token 无效
	CodeInvalidToken = 20002 // Token 无效
	// Token 已过期
	CodeTokenExpired = 20003 // Token 已过期
	// 权限不足
	CodePermissionDeny = 20004 // 权限不足
	// IP 已被封禁
	CodeIPBlocked = 20005 // IP 已被封禁
)

// 用户模块错误 (11xxx)
const (
	// 用户不存在
	CodeUserNotFound = 11001 // 用户不存在
	// 用户已被禁用
	CodeUserDisabled = 11004 // 用户已被禁用
)

// 活动模块错误 (14xxx)
const (
	// 活动不存在
	CodeEventNotFound = 14001 // 活动不存在
	// 已参加该活动
	CodeEventAlreadyJoined = 14002 // 已参加该活动
)

// 扫码结识模块错误 (15xxx)
const (
	// 结识记录不存在或无权查看
	CodeNetworkNotFound = 15001 // 结识记录不存在
	// 不能扫自己的二维码
	CodeCannotScanSelf = 15002 // 不能与自己结识
)

// 社交请求模块错误 (17xxx)
const (
	// 请求不存在（也用于“无权处理/已处理”，不区分原因）
	CodeRequestNotFound = 17001 // 请求不存在
	// 不能向自己发起请求
	CodeCannotRequestSelf = 17002 // 不能向自己发起请求
	// 双方之间已有待处理请求
	CodeRequestAlreadyExists = 17003 // 请求已存在
	// 双方已建立连接
	CodeAlreadyConnected = 17004 // 已连接
	// 响应状态无效
	CodeInvalidResponseStatus = 17005 // 响应状态无效
	// 发送方因垃圾举报被封禁
	CodeSenderBanned = 17006 // 发送方已被封禁
	// 链上交易校验失败
	CodeTransactionInvalid = 17007 // 链上交易校验失败
	// 连接不存在或无权移除
	CodeConnectionNotFound = 17008 // 连接不存在或无权移除
)

// 钱包模块错误 (18xxx)
const (
	// 钱包地址已被其他用户绑定
	CodeWalletAddressTaken = 18001 // 钱包地址已被占用
	// 钱包未绑定
	CodeWalletNotConnected = 18002 // 钱包未绑定
)

// 服务端错误 (3xxxx)
const (
	// 服务器内部错误
	CodeInternalError = 30001 // 服务器内部错误
	// 服务暂不可用
	CodeServiceUnavailable = 30002 // 服务暂不可用
	// 超时错误
	CodeTimeoutError = 30003 // 超时错误
	// 上游（链上 RPC）调用失败
	CodeUpstreamFailure = 30004 // 上游调用失败
)

// 错误消息映射
// 面向客户端展示，使用英文
var CodeMessage = map[int]string{
	CodeSuccess: "Successful",

	// 客户端错误
	CodeParamError:       "Invalid data",
	CodeBodyError:        "Malformed request body",
	CodeResourceNotFound: "Resource not found",
	CodeMethodNotAllowed: "Method not allowed",
	CodeTooManyRequests:  "Too many requests, please slow down",
	CodeBodyTooLarge:     "Request body too large",

	// 认证错误
	CodeUnauthorized:   "Authentication credentials were not provided",
	CodeInvalidToken:   "Invalid token",
	CodeTokenExpired:   "Token has expired",
	CodePermissionDeny: "Permission denied",
	CodeIPBlocked:      "Access denied",

	// 用户模块
	CodeUserNotFound: "User not found",
	CodeUserDisabled: "User is inactive",

	// 活动模块
	CodeEventNotFound:      "Event not found",
	CodeEventAlreadyJoined: "You have already joined this event.",

	// 扫码结识模块
	CodeNetworkNotFound: "Network connection not found.",
	CodeCannotScanSelf:  "You cannot connect with yourself",

	// 社交请求模块
	CodeRequestNotFound:       "Networking request not found",
	CodeCannotRequestSelf:     "You cannot send a networking request to yourself",
	CodeRequestAlreadyExists:  "A request already exists between you and this user",
	CodeAlreadyConnected:      "You are already connected with this user",
	CodeInvalidResponseStatus: "Status must be one of: accepted, rejected, spam",
	CodeSenderBanned:          "Your account has been banned due to spam reports",
	CodeTransactionInvalid:    "Invalid Solana transaction. Please ensure the transaction is confirmed and matches the required amount.",
	CodeConnectionNotFound:    "Connection not found or you don't have permission to remove it",

	// 钱包模块
	CodeWalletAddressTaken: "Wallet address is already connected to another user",
	CodeWalletNotConnected: "Wallet not connected",

	// 服务端错误
	CodeInternalError:      "Internal server error",
	CodeServiceUnavailable: "Service unavailable",
	CodeTimeoutError:       "Request timed out",
	CodeUpstreamFailure:    "Upstream service failure",
}

// codeHTTPStatus 业务码到 HTTP 状态码的映射，未列出的客户端错误统一 400
var codeHTTPStatus = map[int]int{
	CodeSuccess: http.StatusOK,

	CodeResourceNotFound: http.StatusNotFound,
	CodeMethodNotAllowed: http.StatusMethodNotAllowed,
	CodeTooManyRequests:  http.StatusTooManyRequests,
	CodeBodyTooLarge:     http.StatusRequestEntityTooLarge,

	CodeUnauthorized:   http.StatusUnauthorized,
	CodeInvalidToken:   http.StatusUnauthorized,
	CodeTokenExpired:   http.StatusUnauthorized,
	CodePermissionDeny: http.StatusForbidden,
	CodeIPBlocked:      http.StatusForbidden,

	CodeUserNotFound:       http.StatusNotFound,
	CodeUserDisabled:       http.StatusUnauthorized,
	CodeEventNotFound:      http.StatusNotFound,
	CodeNetworkNotFound:    http.StatusNotFound,
	CodeRequestNotFound:    http.StatusNotFound,
	CodeSenderBanned:       http.StatusForbidden,
	CodeWalletAddressTaken: http.StatusConflict,
	CodeWalletNotConnected: http.StatusNotFound,

	CodeRequestAlreadyExists: http.StatusConflict,
	CodeAlreadyConnected:     http.StatusConflict,

	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeTimeoutError:       http.StatusGatewayTimeout,
	CodeUpstreamFailure:    http.StatusBadGateway,
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus 根据业务码返回 HTTP 状态码
//   - 已登记的业务码按映射表返回
//   - 其余 1xxxx/2xxxx 返回 400
//   - 3xxxx 返回 500
func HTTPStatus(code int) int {
	if status, ok := codeHTTPStatus[code]; ok {
		return status
	}
	if IsNonServerError(code) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// 判断是不是非服务端错误（是返回true，否返回false）
func IsNonServerError(code int) bool {
	return code >= 10000 && code < 30000
}
