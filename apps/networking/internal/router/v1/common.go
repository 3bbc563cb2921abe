package v1

import (
	"context"
	"errors"
	"strconv"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/middleware"
	"NetworkingServer/apps/networking/internal/service"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindErrorData 把绑定/校验错误转换成 error_data: {字段: 原因}
func bindErrorData(err error) map[string]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = validationMessage(fe)
		}
		return out
	}
	return map[string]string{"body": "Malformed request body"}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "gt", "min":
		return "Ensure this value is greater than " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

// failBind 参数错误，客户端输入导致，不记录日志
func failBind(c *gin.Context, err error) {
	result.FailWithErrorData(c, "", consts.CodeParamError, bindErrorData(err))
}

// failService 业务错误按错误码返回；内部错误记录日志，debug 时回显错误文本
func failService(ctx context.Context, c *gin.Context, op string, err error, debug bool) {
	biz := service.AsBizError(err)
	if consts.IsNonServerError(biz.Code) {
		result.FailWithMessage(c, nil, biz.Message, biz.Code)
		return
	}

	logger.Error(ctx, op+" 内部错误", logger.ErrorField("error", err))
	if biz.Code == consts.CodeInternalError {
		result.FailWithError(c, biz.Code, err, debug)
		return
	}
	result.FailWithMessage(c, nil, biz.Message, biz.Code)
}

// currentUserID JWTAuth 之后一定存在
func currentUserID(c *gin.Context) int64 {
	id, _ := middleware.GetUserID(c)
	return id
}

// pathID 解析路径中的数字 ID
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bindPage 解析分页参数，缺省值由 service 层兜底
func bindPage(c *gin.Context) (dto.PageQuery, bool) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failBind(c, err)
		return q, false
	}
	return q, true
}

func pageMeta[T any](page *service.PageResult[T]) result.Meta {
	return result.Meta{Count: page.Total, Page: page.Page, PageSize: page.PageSize}
}
