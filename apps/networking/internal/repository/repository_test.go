package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"NetworkingServer/apps/networking/internal/testutil"
	"NetworkingServer/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPending(sender, receiver int64, requestID string) *model.NetworkingRequest {
	return &model.NetworkingRequest{
		RequestId:   requestID,
		SenderId:    sender,
		ReceiverId:  receiver,
		NoteContent: "hi",
	}
}

func TestWrapDBError(t *testing.T) {
	assert.Nil(t, WrapDBError(nil))
	assert.ErrorIs(t, WrapDBError(gorm.ErrRecordNotFound), ErrRecordNotFound)
	assert.ErrorIs(t, WrapDBError(gorm.ErrDuplicatedKey), ErrDuplicateKey)

	err := WrapDBError(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPendingUniqueInBothDirections(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	require.NoError(t, repo.Create(ctx, newPending(a.Id, b.Id, "req_1")))

	err := repo.Create(ctx, newPending(b.Id, a.Id, "req_2"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = repo.Create(ctx, newPending(a.Id, b.Id, "req_3"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRequestIDUnique(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	require.NoError(t, repo.Create(ctx, newPending(a.Id, b.Id, "req_same")))
	assert.ErrorIs(t, repo.Create(ctx, newPending(a.Id, c.Id, "req_same")), ErrDuplicateKey)

	exists, err := repo.RequestIDExists(ctx, "req_same")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRespondIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	req := newPending(a.Id, b.Id, "req_1")
	require.NoError(t, repo.Create(ctx, req))

	// 发送方不能响应
	ok, err := repo.Respond(ctx, req.Id, a.Id, model.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Respond(ctx, req.Id, b.Id, model.StatusRejected)
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二次响应不生效，状态保持 rejected
	ok, err = repo.Respond(ctx, req.Id, b.Id, model.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Nil(t, got.PendingPair)

	// pending 已释放，可以重新发起
	require.NoError(t, repo.Create(ctx, newPending(b.Id, a.Id, "req_2")))
}

func TestRemoveRequiresAcceptedParty(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	req := newPending(a.Id, b.Id, "req_1")
	require.NoError(t, repo.Create(ctx, req))

	ok, err := repo.Remove(ctx, req.Id, a.Id)
	require.NoError(t, err)
	assert.False(t, ok, "pending cannot be removed")

	_, err = repo.Respond(ctx, req.Id, b.Id, model.StatusAccepted)
	require.NoError(t, err)

	ok, err = repo.Remove(ctx, req.Id, c.Id)
	require.NoError(t, err)
	assert.False(t, ok, "outsider cannot remove")

	ok, err = repo.Remove(ctx, req.Id, a.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	connected, err := repo.ExistsBetween(ctx, b.Id, a.Id, model.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestRespondRejectsIllegalTarget(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	req := newPending(a.Id, b.Id, "req_1")
	require.NoError(t, repo.Create(ctx, req))

	for _, to := range []model.RequestStatus{model.StatusRemoved, model.StatusPending, "maybe"} {
		ok, err := repo.Respond(ctx, req.Id, b.Id, to)
		assert.ErrorIs(t, err, ErrInvalidTransition, to)
		assert.False(t, ok)
	}

	got, err := repo.GetByID(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.NotNil(t, got.PendingPair)
}

func TestCreateAfterSoftDeletedPending(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	old := newPending(a.Id, b.Id, "req_old")
	require.NoError(t, repo.Create(ctx, old))

	// 运营后台直接软删除
	require.NoError(t, db.Model(&model.NetworkingRequest{}).Where("id = ?", old.Id).Update("is_deleted", true).Error)

	fresh := newPending(b.Id, a.Id, "req_new")
	require.NoError(t, repo.Create(ctx, fresh))

	var stale model.NetworkingRequest
	require.NoError(t, db.Where("id = ?", old.Id).First(&stale).Error)
	assert.Nil(t, stale.PendingPair)
	assert.Equal(t, model.StatusPending, stale.Status)

	// 未删除的 pending 仍然拦截
	assert.ErrorIs(t, repo.Create(ctx, newPending(a.Id, b.Id, "req_dup")), ErrDuplicateKey)
}

func TestListsAndCount(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	r1 := newPending(a.Id, b.Id, "req_1")
	require.NoError(t, repo.Create(ctx, r1))
	require.NoError(t, repo.Create(ctx, newPending(c.Id, b.Id, "req_2")))
	_, err := repo.Respond(ctx, r1.Id, b.Id, model.StatusAccepted)
	require.NoError(t, err)

	n, err := repo.CountReceivedPending(ctx, b.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	received, total, err := repo.ListReceivedPending(ctx, b.Id, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, received, 1)
	assert.Equal(t, c.Id, received[0].Sender.Id)

	sent, total, err := repo.ListSent(ctx, a.Id, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, sent, 1)

	conns, total, err := repo.ListConnections(ctx, b.Id, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, conns, 1)
	assert.Equal(t, a.Id, conns[0].Sender.Id)
	assert.Equal(t, b.Id, conns[0].Receiver.Id)

	empty, total, err := repo.ListConnections(ctx, c.Id, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)
}

func TestRefundableSelectionAndCompletion(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNetworkingRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)
	today := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")
	past := testutil.CreateEvent(t, db, now.AddDate(0, 0, -1))
	current := testutil.CreateEvent(t, db, now)

	spam := func(sender int64, requestID string, eventID int64) *model.NetworkingRequest {
		req := newPending(sender, b.Id, requestID)
		req.EventId = &eventID
		req.AmountStaked = decimal.NewNullDecimal(decimal.RequireFromString("3"))
		require.NoError(t, repo.Create(ctx, req))
		ok, err := repo.Respond(ctx, req.Id, b.Id, model.StatusSpam)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repo.MarkRefundDelayed(ctx, req.Id))
		return req
	}
	due := spam(a.Id, "req_due", past.Id)
	spam(c.Id, "req_today", current.Id)

	rows, err := repo.ListRefundable(ctx, today, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, due.Id, rows[0].Id)
	assert.True(t, rows[0].AmountStaked.Decimal.Equal(decimal.RequireFromString("3")))

	ok, err := repo.CompleteRefund(ctx, due.Id, "refund_tx", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompleteRefund(ctx, due.Id, "refund_tx_2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, due.Id)
	require.NoError(t, err)
	require.NotNil(t, got.RefundTransactionId)
	assert.Equal(t, "refund_tx", *got.RefundTransactionId)
	assert.NotNil(t, got.RefundedAt)
	assert.False(t, got.IsRefundDelayed)

	rows, err = repo.ListRefundable(ctx, today, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSpamIncrementAndBanLatch(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSpamRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "spammer")

	for i := 1; i < model.BanThreshold; i++ {
		report, err := repo.Increment(ctx, u.Id)
		require.NoError(t, err)
		assert.Equal(t, i, report.ReportCount)
		assert.False(t, report.IsBanned, "banned too early at %d", i)
	}

	report, err := repo.Increment(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, model.BanThreshold, report.ReportCount)
	assert.True(t, report.IsBanned)

	banned, err := repo.IsBanned(ctx, u.Id)
	require.NoError(t, err)
	assert.True(t, banned)

	// 手动解封后再次被举报会重新封禁
	_, err = repo.SetBanned(ctx, u.Id, false)
	require.NoError(t, err)
	report, err = repo.Increment(ctx, u.Id)
	require.NoError(t, err)
	assert.True(t, report.IsBanned)

	bannedCount, reports, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bannedCount)
	assert.Equal(t, int64(model.BanThreshold+1), reports)
}

func TestSpamSetBannedCreatesRow(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSpamRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "u")

	_, err := repo.GetByUserID(ctx, u.Id)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	report, err := repo.SetBanned(ctx, u.Id, true)
	require.NoError(t, err)
	assert.True(t, report.IsBanned)
	assert.Zero(t, report.ReportCount)

	list, total, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ReportedUser.Name)
	assert.Equal(t, "u", *list[0].ReportedUser.Name)
}

func TestWalletUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	w, err := repo.Upsert(ctx, a.Id, "WalletA1", t1)
	require.NoError(t, err)
	assert.Equal(t, "WalletA1", w.WalletAddress)

	// 同一用户重新连接：替换地址，不新增行
	w, err = repo.Upsert(ctx, a.Id, "WalletA2", t2)
	require.NoError(t, err)
	assert.Equal(t, "WalletA2", w.WalletAddress)
	assert.True(t, w.LastConnected.Equal(t2))

	var rows int64
	require.NoError(t, db.Model(&model.WalletConnection{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	_, err = repo.Upsert(ctx, b.Id, "WalletA2", t2)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	addrs, err := repo.GetAddresses(ctx, []int64{a.Id, b.Id})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{a.Id: "WalletA2"}, addrs)
}

func TestUserAndEventLookups(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "a")
	e := testutil.CreateEvent(t, db, time.Now())

	users := NewUserRepository(db)
	got, err := users.GetByTelegramID(ctx, *u.TelegramId)
	require.NoError(t, err)
	assert.Equal(t, u.Id, got.Id)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", u.Id).Update("is_deleted", true).Error)
	_, err = users.GetByID(ctx, u.Id)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	events := NewEventRepository(db)
	ev, err := events.GetByID(ctx, e.Id)
	require.NoError(t, err)
	assert.Equal(t, e.Code, ev.Code)
}

func TestTransactorRollsBackAcrossRepositories(t *testing.T) {
	db := testutil.NewDB(t)
	tx := NewTransactor(db)
	reqRepo := NewNetworkingRepository(db)
	spamRepo := NewSpamRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	req := newPending(a.Id, b.Id, "req_tx")
	require.NoError(t, reqRepo.Create(ctx, req))

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := reqRepo.Respond(ctx, req.Id, b.Id, model.StatusSpam)
		require.NoError(t, err)
		require.True(t, ok)
		_, err = spamRepo.Increment(ctx, a.Id)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := reqRepo.GetByID(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	_, err = spamRepo.GetByUserID(ctx, a.Id)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := reqRepo.Respond(ctx, req.Id, b.Id, model.StatusSpam); err != nil {
			return err
		}
		_, err := spamRepo.Increment(ctx, a.Id)
		return err
	}))
	report, err := spamRepo.GetByUserID(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReportCount)
}
