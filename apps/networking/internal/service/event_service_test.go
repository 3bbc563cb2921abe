package service

import (
	"context"
	"testing"
	"time"

	"NetworkingServer/apps/networking/internal/dto"
	"NetworkingServer/apps/networking/internal/repository"
	"NetworkingServer/apps/networking/internal/testutil"
	"NetworkingServer/consts"
	"NetworkingServer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type eventFixture struct {
	db       *gorm.DB
	events   EventService
	networks UserNetworkService
	spamRepo repository.ISpamRepository
}

func newEventFixture(t *testing.T) *eventFixture {
	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db)
	users := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	spamRepo := repository.NewSpamRepository(db)
	return &eventFixture{
		db:       db,
		events:   NewEventService(tx, eventRepo, users, spamRepo),
		networks: NewUserNetworkService(tx, repository.NewUserNetworkRepository(db), users, eventRepo),
		spamRepo: spamRepo,
	}
}

func strPtr(s string) *string { return &s }

// ==================== EventService ====================

func TestCreateEventReusesSameTitleAndCity(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")

	first, err := f.events.Create(ctx, a.Id, false, &dto.CreateEventRequest{
		Title:        "Go Meetup",
		City:         "Berlin",
		StartingDate: strPtr("2025-05-01"),
		EndingDate:   strPtr("2025-05-02"),
	})
	require.NoError(t, err)
	require.NotNil(t, first.BaseEvent)
	assert.Equal(t, "GOMEETUP_BERLIN", first.Code)
	assert.Equal(t, "2025-05-02", *first.BaseEvent.EndingDate)
	assert.True(t, first.BaseEvent.HasEnded)
	assert.Equal(t, int64(1), first.BaseEvent.AttendeeCount)

	second, err := f.events.Create(ctx, b.Id, false, &dto.CreateEventRequest{Title: "go meetup", City: "berlin"})
	require.NoError(t, err)
	assert.Equal(t, first.BaseEvent.ID, second.BaseEvent.ID)
	assert.Equal(t, "go meetup", second.Title)
	assert.Equal(t, int64(2), second.BaseEvent.AttendeeCount)

	_, err = f.events.Create(ctx, a.Id, false, &dto.CreateEventRequest{Title: "GO-MEETUP", City: "Berlin"})
	assert.Equal(t, consts.CodeEventAlreadyJoined, bizCode(t, err))
}

func TestCreateEventValidation(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")

	_, err := f.events.Create(ctx, a.Id, false, &dto.CreateEventRequest{Title: "!!!"})
	assert.Equal(t, consts.CodeParamError, bizCode(t, err))

	_, err = f.events.Create(ctx, a.Id, false, &dto.CreateEventRequest{
		Title:        "Conf",
		StartingDate: strPtr("2025-05-03"),
		EndingDate:   strPtr("2025-05-01"),
	})
	assert.Equal(t, consts.CodeParamError, bizCode(t, err))

	_, err = f.events.Create(ctx, a.Id, false, &dto.CreateEventRequest{Title: "Conf", StartingDate: strPtr("May 1")})
	assert.Equal(t, consts.CodeParamError, bizCode(t, err))

	var n int64
	require.NoError(t, f.db.Model(&model.BaseEvent{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateEventByStaffIsAdminEvent(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	staff := testutil.CreateUser(t, f.db, "staff")
	user := testutil.CreateUser(t, f.db, "user")

	_, err := f.events.Create(ctx, staff.Id, true, &dto.CreateEventRequest{Title: "Official"})
	require.NoError(t, err)
	_, err = f.events.Create(ctx, user.Id, false, &dto.CreateEventRequest{Title: "Side"})
	require.NoError(t, err)

	page, err := f.events.ListAdminEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, repository.DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "OFFICIAL_", page.Items[0].Code)
}

func TestJoinByCode(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	e := testutil.CreateEvent(t, f.db, time.Now().AddDate(0, 0, 1))

	_, err := f.events.JoinByCode(ctx, a.Id, "nope")
	assert.Equal(t, consts.CodeEventNotFound, bizCode(t, err))

	resp, err := f.events.JoinByCode(ctx, a.Id, " "+e.Code+" ")
	require.NoError(t, err)
	assert.False(t, resp.AlreadyAttended)
	assert.Equal(t, int64(1), resp.Event.AttendeeCount)
	assert.False(t, resp.Event.HasEnded)

	resp, err = f.events.JoinByCode(ctx, a.Id, e.Code)
	require.NoError(t, err)
	assert.True(t, resp.AlreadyAttended)
	assert.Equal(t, int64(1), resp.Event.AttendeeCount)

	page, err := f.events.ListJoined(ctx, a.Id, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "event", page.Items[0].Title)
}

func TestAttendeesSpamLedgerOnlyForStaff(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, f.db, "me")
	spammer := testutil.CreateUser(t, f.db, "spammer")
	clean := testutil.CreateUser(t, f.db, "clean")
	e := testutil.CreateEvent(t, f.db, time.Now())
	testutil.JoinEvent(t, f.db, spammer.Id, e, "x")
	testutil.JoinEvent(t, f.db, clean.Id, e, "x")
	_, err := f.spamRepo.Increment(ctx, spammer.Id)
	require.NoError(t, err)

	_, err = f.events.Attendees(ctx, me.Id, false, &dto.AttendeeQuery{Event: 999})
	assert.Equal(t, consts.CodeEventNotFound, bizCode(t, err))

	page, err := f.events.Attendees(ctx, me.Id, false, &dto.AttendeeQuery{Event: e.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, item := range page.Items {
		assert.Nil(t, item.SpamReport)
	}

	page, err = f.events.Attendees(ctx, me.Id, true, &dto.AttendeeQuery{Event: e.Id})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, spammer.Id, page.Items[0].ID)
	require.NotNil(t, page.Items[0].SpamReport)
	assert.Equal(t, 1, page.Items[0].SpamReport.ReportCount)
	require.NotNil(t, page.Items[1].SpamReport)
	assert.Zero(t, page.Items[1].SpamReport.ReportCount)
}

// ==================== UserNetworkService ====================

func TestCreateNetwork(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	scanner := testutil.CreateUser(t, f.db, "scanner")
	scanned := testutil.CreateUser(t, f.db, "scanned")
	e := testutil.CreateEvent(t, f.db, time.Now())
	testutil.JoinEvent(t, f.db, scanned.Id, e, "Their Summit")

	_, err := f.networks.Create(ctx, scanner.Id, &dto.CreateNetworkRequest{ScannedUserID: scanner.Id})
	assert.Equal(t, consts.CodeCannotScanSelf, bizCode(t, err))

	_, err = f.networks.Create(ctx, scanner.Id, &dto.CreateNetworkRequest{ScannedUserID: 99999})
	assert.Equal(t, consts.CodeUserNotFound, bizCode(t, err))

	missing := int64(99999)
	_, err = f.networks.Create(ctx, scanner.Id, &dto.CreateNetworkRequest{ScannedUserID: scanned.Id, BaseEventID: &missing})
	assert.Equal(t, consts.CodeEventNotFound, bizCode(t, err))

	resp, err := f.networks.Create(ctx, scanner.Id, &dto.CreateNetworkRequest{ScannedUserID: scanned.Id, BaseEventID: &e.Id})
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, dto.RoleScanner, resp.Role)
	assert.Equal(t, scanned.Id, resp.User.ID)
	require.NotNil(t, resp.EventTitle)
	assert.Equal(t, "event", *resp.EventTitle)
	// 扫码方自动参加活动
	assert.Equal(t, int64(2), resp.BaseEvent.AttendeeCount)

	// 反向扫码返回已有记录
	again, err := f.networks.Create(ctx, scanned.Id, &dto.CreateNetworkRequest{ScannedUserID: scanner.Id})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, resp.ID, again.ID)
	assert.Equal(t, dto.RoleScanned, again.Role)
	require.NotNil(t, again.EventTitle)
	assert.Equal(t, "Their Summit", *again.EventTitle)
}

func TestNetworkListAndConnectedUser(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, f.db, "me")
	b := testutil.CreateUser(t, f.db, "b")
	c := testutil.CreateUser(t, f.db, "c")
	e := testutil.CreateEvent(t, f.db, time.Now())
	testutil.JoinEvent(t, f.db, me.Id, e, "Summit")

	_, err := f.networks.Create(ctx, me.Id, &dto.CreateNetworkRequest{ScannedUserID: b.Id, BaseEventID: &e.Id})
	require.NoError(t, err)
	_, err = f.networks.Create(ctx, c.Id, &dto.CreateNetworkRequest{ScannedUserID: me.Id})
	require.NoError(t, err)

	list, total, err := f.networks.List(ctx, me.Id, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Summit"}, list.Filters.Events)
	assert.Len(t, list.Connections, 2)

	list, total, err = f.networks.List(ctx, me.Id, "summit", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list.Connections, 1)
	assert.Equal(t, b.Id, list.Connections[0].User.ID)

	detail, err := f.networks.ConnectedUser(ctx, me.Id, b.Id)
	require.NoError(t, err)
	assert.Equal(t, b.Id, detail.User.ID)
	require.NotNil(t, detail.Meeting)
	assert.Equal(t, detail.Network.ID, detail.Meeting.NetworkID)
	require.NotNil(t, detail.Meeting.ScannerUser)
	assert.Equal(t, "me_tg", *detail.Meeting.ScannerUser)

	other := testutil.CreateUser(t, f.db, "stranger")
	_, err = f.networks.ConnectedUser(ctx, me.Id, other.Id)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))
	_, err = f.networks.ConnectedUser(ctx, me.Id, 99999)
	assert.Equal(t, consts.CodeUserNotFound, bizCode(t, err))
}

func TestSaveAndGetMeeting(t *testing.T) {
	f := newEventFixture(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, f.db, "a")
	b := testutil.CreateUser(t, f.db, "b")
	outsider := testutil.CreateUser(t, f.db, "outsider")
	e := testutil.CreateEvent(t, f.db, time.Now())
	other := testutil.CreateEvent(t, f.db, time.Now())

	withEvent, err := f.networks.Create(ctx, a.Id, &dto.CreateNetworkRequest{ScannedUserID: b.Id, BaseEventID: &e.Id})
	require.NoError(t, err)
	noEvent, err := f.networks.Create(ctx, outsider.Id, &dto.CreateNetworkRequest{ScannedUserID: b.Id})
	require.NoError(t, err)

	save := func(userID, networkID, eventID int64) (*dto.MeetingDetail, error) {
		return f.networks.SaveMeeting(ctx, userID, &dto.SaveMeetingRequest{
			NetworkID:   networkID,
			BaseEventID: eventID,
			SummaryNote: "talked about Go",
			MeetingImages: []*dto.MeetingImageInput{
				{Note: strPtr("selfie"), Image: strPtr("https://cdn/1.jpg")},
			},
		})
	}

	_, err = save(outsider.Id, withEvent.ID, e.Id)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))
	_, err = save(a.Id, withEvent.ID, other.Id)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))
	_, err = save(a.Id, 99999, e.Id)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))

	saved, err := save(b.Id, withEvent.ID, e.Id)
	require.NoError(t, err)
	assert.Equal(t, "talked about Go", saved.SummaryNote)
	assert.Equal(t, b.Id, *saved.SavedByUserID)
	require.Len(t, saved.MeetingImages, 1)

	got, err := f.networks.GetMeeting(ctx, a.Id, withEvent.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Len(t, got.MeetingImages, 1)

	_, err = f.networks.GetMeeting(ctx, outsider.Id, withEvent.ID)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))
	// 没有活动的结识记录没有笔记
	_, err = f.networks.GetMeeting(ctx, b.Id, noEvent.ID)
	assert.Equal(t, consts.CodeNetworkNotFound, bizCode(t, err))
}
