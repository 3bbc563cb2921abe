package dto

import "github.com/shopspring/decimal"

// 交易状态
const (
	TxStatusConfirmed = "confirmed"
	TxStatusNotFound  = "not_found"
)

// TransactionStatusResponse 交易校验结果
type TransactionStatusResponse struct {
	TransactionID string `json:"transaction_id"`
	IsValid       bool   `json:"is_valid"`
	Status        string `json:"status"`
}

// MockTransactionRequest 生成测试交易，amount 缺省 3 SOL
type MockTransactionRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// MockTransactionResponse 测试交易
type MockTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
}
