package repository

import (
	"context"
	"testing"
	"time"

	"NetworkingServer/apps/networking/internal/testutil"
	"NetworkingServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserNetworkCreateIsUnorderedPair(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserNetworkRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	n := &model.UserNetwork{ScannerId: a.Id, ScannedId: b.Id}
	require.NoError(t, repo.Create(ctx, n))
	assert.Equal(t, model.PairKey(a.Id, b.Id), n.NetworkPair)
	assert.False(t, n.MeetingDate.IsZero())

	err := repo.Create(ctx, &model.UserNetwork{ScannerId: b.Id, ScannedId: a.Id})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	found, err := repo.FindBetween(ctx, b.Id, a.Id)
	require.NoError(t, err)
	assert.Equal(t, n.Id, found.Id)

	// 建立记录时带一份空白会面笔记，由被扫方占位
	info, err := repo.GetMeeting(ctx, n.Id)
	require.NoError(t, err)
	assert.Equal(t, "", info.SummaryNote)
	require.NotNil(t, info.InformationSavedUserId)
	assert.Equal(t, b.Id, *info.InformationSavedUserId)
	assert.Empty(t, info.Images)

	got, err := repo.GetByID(ctx, n.Id)
	require.NoError(t, err)
	require.NotNil(t, got.Scanner)
	require.NotNil(t, got.Scanned)
	assert.Equal(t, a.Id, got.Scanner.Id)

	_, err = repo.FindBetween(ctx, a.Id, 999)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestUserNetworkListFiltersByOwnTitle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserNetworkRepository(db)
	ctx := context.Background()
	me := testutil.CreateUser(t, db, "me")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")
	d := testutil.CreateUser(t, db, "d")
	e1 := testutil.CreateEvent(t, db, time.Now())
	e2 := testutil.CreateEvent(t, db, time.Now())
	testutil.JoinEvent(t, db, me.Id, e1, "Summit")
	testutil.JoinEvent(t, db, me.Id, e2, "Party")

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	older := &model.UserNetwork{ScannerId: me.Id, ScannedId: b.Id, BaseEventId: &e1.Id, MeetingDate: base}
	newer := &model.UserNetwork{ScannerId: c.Id, ScannedId: me.Id, BaseEventId: &e1.Id, MeetingDate: base.Add(time.Hour)}
	party := &model.UserNetwork{ScannerId: me.Id, ScannedId: d.Id, BaseEventId: &e2.Id, MeetingDate: base.Add(2 * time.Hour)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, party))

	rows, total, err := repo.List(ctx, me.Id, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, party.Id, rows[0].Id)

	rows, total, err = repo.List(ctx, me.Id, "  SUMMIT ", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.Id, rows[0].Id)
	assert.Equal(t, older.Id, rows[1].Id)
	require.NotNil(t, rows[0].BaseEvent)

	// 标题属于对方而非当前用户时不匹配
	rows, _, err = repo.List(ctx, b.Id, "Summit", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSaveMeetingReplacesImages(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserNetworkRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	n := &model.UserNetwork{ScannerId: a.Id, ScannedId: b.Id}
	require.NoError(t, repo.Create(ctx, n))

	info, err := repo.SaveMeeting(ctx, n.Id, a.Id, "coffee", []*model.MeetingImage{
		{Note: strPtr("selfie"), Image: strPtr("https://cdn/1.jpg")},
		{Image: strPtr("https://cdn/2.jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "coffee", info.SummaryNote)
	assert.Equal(t, a.Id, *info.InformationSavedUserId)
	require.Len(t, info.Images, 2)
	assert.Equal(t, "selfie", *info.Images[0].Note)

	info, err = repo.SaveMeeting(ctx, n.Id, b.Id, "lunch", []*model.MeetingImage{
		{Image: strPtr("https://cdn/3.jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "lunch", info.SummaryNote)
	assert.Equal(t, b.Id, *info.InformationSavedUserId)
	require.Len(t, info.Images, 1)
	assert.Equal(t, "https://cdn/3.jpg", *info.Images[0].Image)

	var meetings, images int64
	require.NoError(t, db.Model(&model.MeetingInformation{}).Count(&meetings).Error)
	require.NoError(t, db.Model(&model.MeetingImage{}).Count(&images).Error)
	assert.Equal(t, int64(1), meetings)
	assert.Equal(t, int64(1), images)

	_, err = repo.SaveMeeting(ctx, n.Id, a.Id, "", nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.MeetingImage{}).Count(&images).Error)
	assert.Equal(t, int64(0), images)
}
