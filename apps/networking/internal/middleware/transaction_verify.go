package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/result"
	"NetworkingServer/pkg/solana"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxVerifyBodyBytes 入口校验最多读取的请求体字节数
const maxVerifyBodyBytes = 1 << 20

// stakePayload 入口校验只关心的两个字段
type stakePayload struct {
	TransactionID string           `json:"transaction_id"`
	AmountStaked  *decimal.Decimal `json:"amount_staked"`
}

// TransactionVerify 发送请求的入口链上校验
// 仅 POST 且同时带 transaction_id 与 amount_staked 时校验，
// 明确校验失败才拒绝；请求体无法解析或链上调用出错时放行，由后续 handler 处理
func TransactionVerify(verifier solana.Verifier, platformWallet string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || verifier == nil || c.Request.Body == nil {
			c.Next()
			return
		}
		ctx := NewContextWithGin(c)

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxVerifyBodyBytes))
		// 读到的部分放回去，超出上限的剩余部分接在后面
		c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
		if err != nil {
			logger.Warn(ctx, "入口交易校验读取请求体失败，放行", logger.ErrorField("error", err))
			c.Next()
			return
		}

		var payload stakePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.Next()
			return
		}
		txID := strings.TrimSpace(payload.TransactionID)
		if txID == "" || payload.AmountStaked == nil {
			c.Next()
			return
		}

		ok, err := verifier.Verify(ctx, txID, payload.AmountStaked, platformWallet)
		if err != nil {
			logger.Warn(ctx, "入口交易校验异常，放行",
				logger.String("transaction_id", txID),
				logger.ErrorField("error", err),
			)
			c.Next()
			return
		}
		if !ok {
			logger.Info(ctx, "入口交易校验未通过", logger.String("transaction_id", txID))
			result.FailWithErrorData(c, "", consts.CodeTransactionInvalid, gin.H{"transaction_id": txID})
			c.Abort()
			return
		}

		c.Next()
	}
}
