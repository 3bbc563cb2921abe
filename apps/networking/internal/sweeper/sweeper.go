// Package sweeper 延迟退款清算
//
// 被标记为 spam 的请求在关联活动结束后（结束日期早于今天，UTC）按扣除平台手续费后的金额
// 退还给发送方。每行最多退款一次：
//   - Redis 行锁防止并发实例重复打款
//   - 转账成功后先记录 refund_pending_tx，记账失败时下次扫描只补写结果
//   - 最终写入以 refund_transaction_id IS NULL 为条件
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"NetworkingServer/apps/networking/internal/mq"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/config"
	"NetworkingServer/model"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/redis"
	"NetworkingServer/pkg/solana"
	"NetworkingServer/pkg/util"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// rowLockPrefix 单行退款锁 key 前缀
const rowLockPrefix = "refund:lock:"

// Report 一次扫描的统计
type Report struct {
	Found    int
	Refunded int
	Skipped  int
	Failed   int
	Locked   bool // 其他实例正在扫描，本次跳过
}

// Sweeper 延迟退款清算任务
type Sweeper struct {
	cfg       config.SweeperConfig
	fee       decimal.Decimal
	requests  repository.INetworkingRepository
	wallets   repository.IWalletRepository
	verifier  solana.Verifier
	rdb       *goredis.Client
	publisher mq.Publisher
	now       func() time.Time

	// unsettled 已上链但数据库尚未确认的退款（行 id -> 退款交易id）
	// 数据库整体不可用、refund_pending_tx 也写不进去时，本进程靠它避免重复转账
	mu        sync.Mutex
	unsettled map[int64]string
}

// Option 可选配置
type Option func(*Sweeper)

// WithClock 替换时钟（单测）
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithPublisher 退款完成后发布领域事件
func WithPublisher(p mq.Publisher) Option {
	return func(s *Sweeper) {
		if p != nil {
			s.publisher = p
		}
	}
}

// New 创建清算任务
// rdb 可为 nil：此时不加分布式锁，只依赖条件写入兜底
func New(
	cfg config.SweeperConfig,
	requests repository.INetworkingRepository,
	wallets repository.IWalletRepository,
	verifier solana.Verifier,
	rdb *goredis.Client,
	opts ...Option,
) (*Sweeper, error) {
	fee, err := decimal.NewFromString(cfg.FeePercentage)
	if err != nil {
		return nil, fmt.Errorf("parse fee percentage %q: %w", cfg.FeePercentage, err)
	}
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee percentage %s out of range [0, 1)", fee.String())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = repository.MaxPageSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	s := &Sweeper{
		cfg:       cfg,
		fee:       fee,
		requests:  requests,
		wallets:   wallets,
		verifier:  verifier,
		rdb:       rdb,
		publisher: mq.Nop{},
		now:       time.Now,
		unsettled: make(map[int64]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run 立即执行一次，之后按 Interval 周期执行，直到 ctx 取消
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(ctx, "退款清算执行失败", logger.ErrorField("error", err))
		}
		select {
		case <-ctx.Done():
			logger.Info(ctx, "退款清算已停止")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce 执行一次扫描
// 业务流程：
//  1. 获取全局运行锁，拿不到说明其他实例在跑，直接返回
//  2. 查询待退款请求（活动结束日期早于今天零点）
//  3. 批量查询发送方钱包
//  4. 逐行退款，单行失败不影响其他行
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()

	// 1. 运行锁
	lock, ok, err := redis.TryLock(ctx, s.rdb, s.cfg.RunLockKey, s.cfg.RunLockTTL)
	if err != nil {
		// Redis 故障时降级为无锁执行，行级条件写入仍然保证不重复记账
		repository.LogRedisError(ctx, err)
		lock, ok = nil, true
	}
	if !ok {
		logger.Info(ctx, "其他实例正在执行退款清算，跳过本次", logger.String("key", s.cfg.RunLockKey))
		report.Locked = true
		return report, nil
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "释放清算运行锁失败", logger.ErrorField("error", err))
		}
	}()

	// 2. 待退款
	cutoff := util.StartOfDayUTC(s.now())
	rows, err := s.requests.ListRefundable(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return report, fmt.Errorf("list refundable: %w", err)
	}
	report.Found = len(rows)
	if len(rows) == 0 {
		s.finish(ctx, report, start)
		return report, nil
	}

	// 3. 钱包
	senderIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		senderIDs = append(senderIDs, row.SenderId)
	}
	wallets, err := s.wallets.GetAddresses(ctx, senderIDs)
	if err != nil {
		return report, fmt.Errorf("load sender wallets: %w", err)
	}

	// 4. 逐行
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		switch s.refundRow(ctx, row, wallets[row.SenderId]) {
		case resultRefunded:
			report.Refunded++
		case resultFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	s.finish(ctx, report, start)
	return report, ctx.Err()
}

func (s *Sweeper) finish(ctx context.Context, report Report, start time.Time) {
	elapsed := time.Since(start)
	runDuration.Observe(elapsed.Seconds())
	lastRun.SetToCurrentTime()
	logger.Info(ctx, "退款清算完成",
		logger.Int("found", report.Found),
		logger.Int("refunded", report.Refunded),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed),
		logger.Duration("elapsed", elapsed),
	)
}

// refundRow 处理单行，返回结果标签
//   - 转账失败时不修改该行，下次扫描重试
//   - 已有上链记录（refund_pending_tx 或进程内记录）时跳过转账，只补写结果
//   - 转账成功但记账失败时不释放行锁，由 TTL 到期释放
func (s *Sweeper) refundRow(ctx context.Context, row *model.NetworkingRequest, senderWallet string) (result string) {
	defer func() { refundsTotal.WithLabelValues(result).Inc() }()

	if !row.AmountStaked.Valid || !row.AmountStaked.Decimal.IsPositive() {
		logger.Warn(ctx, "请求没有质押金额，跳过退款", logger.Int64("id", row.Id))
		return resultSkipped
	}
	if senderWallet == "" {
		logger.Warn(ctx, "发送方未绑定钱包，跳过退款", logger.Int64("id", row.Id), logger.Int64("sender_id", row.SenderId))
		return resultSkipped
	}

	lock, ok, err := redis.TryLock(ctx, s.rdb, rowLockPrefix+strconv.FormatInt(row.Id, 10), s.cfg.RowLockTTL)
	if err != nil {
		logger.Warn(ctx, "获取退款行锁失败，跳过", logger.Int64("id", row.Id), logger.ErrorField("error", err))
		return resultSkipped
	}
	if !ok {
		logger.Info(ctx, "退款行已被其他实例锁定", logger.Int64("id", row.Id))
		return resultSkipped
	}
	keepLock := false
	defer func() {
		if keepLock {
			return
		}
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "释放退款行锁失败", logger.Int64("id", row.Id), logger.ErrorField("error", err))
		}
	}()

	amount := solana.RefundAmount(row.AmountStaked.Decimal, s.fee)

	refundTx := s.settledTx(row)
	if refundTx != "" {
		logger.Warn(ctx, "退款已上链，补写结果",
			logger.Int64("id", row.Id),
			logger.String("refund_tx", refundTx),
		)
	} else {
		txID := ""
		if row.TransactionId != nil {
			txID = *row.TransactionId
		}
		refundTx, err = s.verifier.Refund(ctx, txID, amount, senderWallet)
		if err != nil || refundTx == "" {
			logger.Error(ctx, "退款转账失败",
				logger.Int64("id", row.Id),
				logger.String("request_id", row.RequestId),
				logger.String("amount", amount.String()),
				logger.ErrorField("error", err),
			)
			return resultFailed
		}
		s.remember(row.Id, refundTx)
		if err := s.requests.RecordRefundTx(context.WithoutCancel(ctx), row.Id, refundTx); err != nil {
			logger.Error(ctx, "记录退款交易失败", logger.Int64("id", row.Id), logger.String("refund_tx", refundTx), logger.ErrorField("error", err))
		}
	}

	refundedAt := s.now().UTC()
	done, err := s.requests.CompleteRefund(context.WithoutCancel(ctx), row.Id, refundTx, refundedAt)
	if err != nil {
		keepLock = true
		logger.Error(ctx, "退款已转账但写入结果失败",
			logger.Int64("id", row.Id),
			logger.String("refund_tx", refundTx),
			logger.ErrorField("error", err),
		)
		return resultFailed
	}
	s.forget(row.Id)
	if !done {
		logger.Warn(ctx, "退款结果已由其他实例写入", logger.Int64("id", row.Id), logger.String("refund_tx", refundTx))
		return resultRaced
	}

	logger.Info(ctx, "退款完成",
		logger.Int64("id", row.Id),
		logger.String("request_id", row.RequestId),
		logger.String("amount", amount.String()),
		logger.String("refund_tx", refundTx),
	)

	s.publisher.Publish(ctx, mq.Event{
		Type:       mq.EventRefundCompleted,
		ID:         row.Id,
		RequestID:  row.RequestId,
		SenderID:   row.SenderId,
		ReceiverID: row.ReceiverId,
		Status:     string(row.Status),
		Amount:     amount.StringFixed(6),
		RefundTxID: refundTx,
		OccurredAt: refundedAt,
	})
	return resultRefunded
}

// settledTx 该行已上链的退款交易id，优先取数据库记录
func (s *Sweeper) settledTx(row *model.NetworkingRequest) string {
	if row.RefundPendingTx != nil && *row.RefundPendingTx != "" {
		return *row.RefundPendingTx
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsettled[row.Id]
}

func (s *Sweeper) remember(id int64, refundTx string) {
	s.mu.Lock()
	s.unsettled[id] = refundTx
	s.mu.Unlock()
}

func (s *Sweeper) forget(id int64) {
	s.mu.Lock()
	delete(s.unsettled, id)
	s.mu.Unlock()
}
