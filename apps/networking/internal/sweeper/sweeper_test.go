package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"NetworkingServer/apps/networking/internal/mq"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/testutil"
	"NetworkingServer/config"
	"NetworkingServer/model"
	"NetworkingServer/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeVerifier struct {
	mu       sync.Mutex
	calls    []decimal.Decimal
	VerifyFn func(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error)
	RefundFn func(ctx context.Context, txID string, amount decimal.Decimal, senderWallet string) (string, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, txID string, amount *decimal.Decimal, recipient string) (bool, error) {
	if f.VerifyFn == nil {
		return false, errors.New("unexpected Verify call")
	}
	return f.VerifyFn(ctx, txID, amount, recipient)
}

func (f *fakeVerifier) Refund(ctx context.Context, txID string, amount decimal.Decimal, senderWallet string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, amount)
	f.mu.Unlock()
	if f.RefundFn == nil {
		return "", errors.New("unexpected Refund call")
	}
	return f.RefundFn(ctx, txID, amount, senderWallet)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt mq.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

var today = time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

func testConfig() config.SweeperConfig {
	return config.SweeperConfig{
		Interval:      time.Hour,
		BatchSize:     50,
		FeePercentage: "0.10",
		RunLockTTL:    time.Minute,
		RowLockTTL:    time.Second * 30,
		RunLockKey:    "test:sweeper",
	}
}

// spamRequest 构造一条已标记延迟退款的 spam 请求
func spamRequest(t *testing.T, db *gorm.DB, eventEnd time.Time, amount string, withWallet bool) *model.NetworkingRequest {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewNetworkingRepository(db)
	sender := testutil.CreateUser(t, db, "sender")
	receiver := testutil.CreateUser(t, db, "receiver")
	if withWallet {
		testutil.CreateWallet(t, db, sender.Id, "Wallet"+id.GenerateULID())
	}
	event := testutil.CreateEvent(t, db, eventEnd)

	tx := "mock_tx_" + id.GenerateULID()[:8]
	req := &model.NetworkingRequest{
		RequestId:     id.GenerateRequestID(),
		SenderId:      sender.Id,
		ReceiverId:    receiver.Id,
		NoteContent:   "hi",
		TransactionId: &tx,
		AmountStaked:  decimal.NewNullDecimal(decimal.RequireFromString(amount)),
		EventId:       &event.Id,
	}
	require.NoError(t, repo.Create(ctx, req))
	ok, err := repo.Respond(ctx, req.Id, receiver.Id, model.StatusSpam)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.MarkRefundDelayed(ctx, req.Id))
	return req
}

func newSweeper(t *testing.T, db *gorm.DB, v *fakeVerifier, opts ...Option) *Sweeper {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	s, err := New(testConfig(), repository.NewNetworkingRepository(db), repository.NewWalletRepository(db), v, nil, opts...)
	require.NoError(t, err)
	return s
}

func reload(t *testing.T, db *gorm.DB, reqID int64) *model.NetworkingRequest {
	t.Helper()
	got, err := repository.NewNetworkingRepository(db).GetByID(context.Background(), reqID)
	require.NoError(t, err)
	return got
}

func TestRunOnceRefundsAfterEventEnds(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	yesterday := today.AddDate(0, 0, -1)

	three := spamRequest(t, db, yesterday, "3.000000", true)
	twoHalf := spamRequest(t, db, yesterday, "2.5", true)
	endsToday := spamRequest(t, db, today, "1", true)
	future := spamRequest(t, db, today.AddDate(0, 0, 3), "1", true)

	v := &fakeVerifier{RefundFn: func(_ context.Context, txID string, _ decimal.Decimal, _ string) (string, error) {
		return "refund_" + txID, nil
	}}
	pub := &recordingPublisher{}
	s := newSweeper(t, db, v, WithPublisher(pub))

	report, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 2, Refunded: 2}, report)

	require.Len(t, v.calls, 2)
	assert.True(t, decimal.RequireFromString("2.7").Equal(v.calls[0]), v.calls[0].String())
	assert.True(t, decimal.RequireFromString("2.25").Equal(v.calls[1]), v.calls[1].String())

	got := reload(t, db, three.Id)
	require.NotNil(t, got.RefundTransactionId)
	assert.Equal(t, "refund_"+*three.TransactionId, *got.RefundTransactionId)
	require.NotNil(t, got.RefundedAt)
	assert.False(t, got.IsRefundDelayed)

	assert.NotNil(t, reload(t, db, twoHalf.Id).RefundedAt)
	assert.Nil(t, reload(t, db, endsToday.Id).RefundedAt)
	assert.Nil(t, reload(t, db, future.Id).RefundedAt)

	require.Len(t, pub.events, 2)
	assert.Equal(t, mq.EventRefundCompleted, pub.events[0].Type)
	assert.Equal(t, "2.700000", pub.events[0].Amount)

	// 幂等：再跑一次不会重复退款
	report, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Len(t, v.calls, 2)
}

func TestRunOnceSkipsMissingWallet(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	req := spamRequest(t, db, today.AddDate(0, 0, -2), "1", false)

	v := &fakeVerifier{}
	report, err := newSweeper(t, db, v).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 1, Skipped: 1}, report)
	assert.Empty(t, v.calls)

	got := reload(t, db, req.Id)
	assert.True(t, got.IsRefundDelayed)
	assert.Nil(t, got.RefundTransactionId)
}

func TestRunOnceRefundFailureLeavesRow(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	req := spamRequest(t, db, today.AddDate(0, 0, -1), "1", true)

	fail := true
	v := &fakeVerifier{RefundFn: func(context.Context, string, decimal.Decimal, string) (string, error) {
		if fail {
			return "", errors.New("rpc unavailable")
		}
		return "sig123", nil
	}}
	s := newSweeper(t, db, v)

	report, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 1, Failed: 1}, report)
	got := reload(t, db, req.Id)
	assert.True(t, got.IsRefundDelayed)
	assert.Nil(t, got.RefundTransactionId)
	assert.Nil(t, got.RefundedAt)

	fail = false
	report, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Refunded)
	got = reload(t, db, req.Id)
	require.NotNil(t, got.RefundTransactionId)
	assert.Equal(t, "sig123", *got.RefundTransactionId)
}

// completeFailingRepo 记账写入可注入失败，其余走真实仓储
type completeFailingRepo struct {
	repository.INetworkingRepository
	CompleteRefundFn func(ctx context.Context, id int64, refundTxID string, refundedAt time.Time) (bool, error)
}

func (r *completeFailingRepo) CompleteRefund(ctx context.Context, id int64, refundTxID string, refundedAt time.Time) (bool, error) {
	if r.CompleteRefundFn != nil {
		return r.CompleteRefundFn(ctx, id, refundTxID, refundedAt)
	}
	return r.INetworkingRepository.CompleteRefund(ctx, id, refundTxID, refundedAt)
}

func TestRunOnceCompleteFailureDoesNotRefundTwice(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	req := spamRequest(t, db, today.AddDate(0, 0, -1), "1", true)

	v := &fakeVerifier{RefundFn: func(context.Context, string, decimal.Decimal, string) (string, error) {
		return "sig_once", nil
	}}
	repo := &completeFailingRepo{
		INetworkingRepository: repository.NewNetworkingRepository(db),
		CompleteRefundFn: func(context.Context, int64, string, time.Time) (bool, error) {
			return false, errors.New("db down")
		},
	}
	pub := &recordingPublisher{}
	s, err := New(testConfig(), repo, repository.NewWalletRepository(db), v, nil,
		WithClock(func() time.Time { return today }), WithPublisher(pub))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		report, err := s.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, Report{Found: 1, Failed: 1}, report)
	}
	assert.Len(t, v.calls, 1)
	assert.Empty(t, pub.events)

	got := reload(t, db, req.Id)
	assert.Nil(t, got.RefundTransactionId)
	require.NotNil(t, got.RefundPendingTx)
	assert.Equal(t, "sig_once", *got.RefundPendingTx)

	// 数据库恢复后只补写结果
	repo.CompleteRefundFn = nil
	report, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 1, Refunded: 1}, report)
	assert.Len(t, v.calls, 1)

	got = reload(t, db, req.Id)
	require.NotNil(t, got.RefundTransactionId)
	assert.Equal(t, "sig_once", *got.RefundTransactionId)
	assert.False(t, got.IsRefundDelayed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "sig_once", pub.events[0].RefundTxID)
}

func TestRunOncePendingRefundSurvivesRestart(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	req := spamRequest(t, db, today.AddDate(0, 0, -1), "1", true)

	first := &fakeVerifier{RefundFn: func(context.Context, string, decimal.Decimal, string) (string, error) {
		return "sig_before_crash", nil
	}}
	repo := &completeFailingRepo{
		INetworkingRepository: repository.NewNetworkingRepository(db),
		CompleteRefundFn: func(context.Context, int64, string, time.Time) (bool, error) {
			return false, errors.New("db down")
		},
	}
	s, err := New(testConfig(), repo, repository.NewWalletRepository(db), first, nil,
		WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	_, err = s.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, first.calls, 1)

	// 新实例没有进程内记录，只能依赖 refund_pending_tx
	second := &fakeVerifier{}
	report, err := newSweeper(t, db, second).RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 1, Refunded: 1}, report)
	assert.Empty(t, second.calls)
	assert.Equal(t, "sig_before_crash", *reload(t, db, req.Id).RefundTransactionId)
}

func TestRunOnceEmptyRefundIDIsFailure(t *testing.T) {
	db := testutil.NewDB(t)
	req := spamRequest(t, db, today.AddDate(0, 0, -1), "1", true)

	v := &fakeVerifier{RefundFn: func(context.Context, string, decimal.Decimal, string) (string, error) {
		return "", nil
	}}
	report, err := newSweeper(t, db, v).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Nil(t, reload(t, db, req.Id).RefundTransactionId)
}

func TestNewRejectsBadFee(t *testing.T) {
	for _, fee := range []string{"abc", "-0.1", "1", "1.5"} {
		cfg := testConfig()
		cfg.FeePercentage = fee
		_, err := New(cfg, nil, nil, &fakeVerifier{}, nil)
		assert.Error(t, err, fee)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	db := testutil.NewDB(t)
	s := newSweeper(t, db, &fakeVerifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
