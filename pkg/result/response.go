package result

import (
	"net/http"
	"sync"
	"time"

	"NetworkingServer/consts"

	"github.com/gin-gonic/gin"
)

// 响应状态
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// gin.Context 上的 key，供监控、审计中间件读取
const (
	ContextKeyBusinessCode = "business_code"
	ContextKeyStatus       = "result_status"
	ContextKeyMessage      = "result_message"
	ContextKeyErrorData    = "result_error_data"
)

// Meta 列表分页信息
type Meta struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// Response 统一响应信封
type Response struct {
	Status       string      `json:"status"`
	StatusCode   int         `json:"status_code"`
	Code         int         `json:"code"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data"`
	ErrorData    interface{} `json:"error_data"`
	ErrorMessage string      `json:"error_message"`
	Timestamp    string      `json:"timestamp"`
	Meta         *Meta       `json:"meta,omitempty"`
	TraceId      string      `json:"trace_id,omitempty"`
}

var responsePool = &sync.Pool{
	New: func() interface{} {
		return &Response{}
	},
}

// GetResponse 获取响应
func GetResponse() *Response {
	resp := responsePool.Get().(*Response)
	*resp = Response{}
	return resp
}

// PutResponse 放回响应
func PutResponse(resp *Response) {
	responsePool.Put(resp)
}

// emptyObject 失败时 data / error_data 缺省输出 {}
var emptyObject = struct{}{}

// Result 返回响应
// HTTP 状态码由业务码决定（consts.HTTPStatus），status_code 与 HTTP 状态码一致
func Result(c *gin.Context, data interface{}, message string, code int, errorData interface{}, errorMessage string, meta *Meta) {
	render(c, consts.HTTPStatus(code), data, message, code, errorData, errorMessage, meta)
}

func render(c *gin.Context, httpStatus int, data interface{}, message string, code int, errorData interface{}, errorMessage string, meta *Meta) {
	if message == "" {
		message = consts.GetMessage(code)
	}

	status := StatusSuccess
	if code != consts.CodeSuccess {
		status = StatusFailure
		if data == nil {
			data = emptyObject
		}
		if errorData == nil {
			errorData = emptyObject
		}
	} else if errorData == nil {
		errorData = emptyObject
	}

	// 将业务结果存储到 context 中供监控、审计中间件使用
	c.Set(ContextKeyBusinessCode, code)
	c.Set(ContextKeyStatus, status)
	c.Set(ContextKeyMessage, message)
	if status == StatusFailure {
		c.Set(ContextKeyErrorData, errorData)
	}

	resp := GetResponse()
	defer PutResponse(resp)
	resp.Status = status
	resp.StatusCode = httpStatus
	resp.Code = code
	resp.Message = message
	resp.Data = data
	resp.ErrorData = errorData
	resp.ErrorMessage = errorMessage
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	resp.Meta = meta
	resp.TraceId = c.GetString("trace_id")

	c.JSON(httpStatus, resp)
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	Result(c, data, "", consts.CodeSuccess, nil, "", nil)
}

// SuccessWithMessage 返回成功响应并自定义消息
func SuccessWithMessage(c *gin.Context, data interface{}, message string) {
	Result(c, data, message, consts.CodeSuccess, nil, "", nil)
}

// Created 返回 201，用于创建类接口
func Created(c *gin.Context, data interface{}, message string) {
	render(c, http.StatusCreated, data, message, consts.CodeSuccess, nil, "", nil)
}

// SuccessWithMeta 返回分页列表，message 为空时使用默认文案
func SuccessWithMeta(c *gin.Context, data interface{}, message string, meta Meta) {
	Result(c, data, message, consts.CodeSuccess, nil, "", &meta)
}

// Fail 返回失败响应
func Fail(c *gin.Context, data interface{}, code int) {
	Result(c, data, "", code, nil, "", nil)
}

// FailWithMessage 返回失败响应并自定义消息
func FailWithMessage(c *gin.Context, data interface{}, message string, code int) {
	Result(c, data, message, code, nil, "", nil)
}

// FailWithErrorData 返回带字段级错误详情的失败响应（如参数校验）
func FailWithErrorData(c *gin.Context, message string, code int, errorData interface{}) {
	Result(c, nil, message, code, errorData, "", nil)
}

// FailWithError 返回失败响应
// debug 为 true 时把内部错误文本放入 error_message，否则不外泄
func FailWithError(c *gin.Context, code int, err error, debug bool) {
	errMsg := ""
	if err != nil && debug {
		errMsg = err.Error()
	}
	Result(c, nil, "", code, nil, errMsg, nil)
}
