package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	for _, to := range []RequestStatus{StatusAccepted, StatusRejected, StatusSpam} {
		assert.True(t, StatusPending.CanTransition(to), to)
	}
	assert.False(t, StatusPending.CanTransition(StatusRemoved))
	assert.False(t, StatusPending.CanTransition(StatusPending))
	assert.True(t, StatusAccepted.CanTransition(StatusRemoved))

	for _, from := range []RequestStatus{StatusAccepted, StatusRejected, StatusSpam, StatusRemoved} {
		assert.False(t, from.CanTransition(StatusPending), from)
	}
	for _, from := range []RequestStatus{StatusRejected, StatusSpam, StatusRemoved} {
		assert.False(t, from.CanTransition(StatusAccepted), from)
	}
}

func TestStatusIsResponse(t *testing.T) {
	assert.False(t, RequestStatus("maybe").IsResponse())
	assert.False(t, StatusRemoved.IsResponse())
	assert.False(t, StatusPending.IsResponse())
}

func TestPairKeyIsUnordered(t *testing.T) {
	assert.Equal(t, "3:9", PairKey(9, 3))
	assert.Equal(t, PairKey(3, 9), PairKey(9, 3))
}

func TestEventHasEnded(t *testing.T) {
	now := time.Date(2025, 5, 3, 9, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	assert.True(t, (&BaseEvent{EndingDate: day(2)}).HasEnded(now))
	assert.False(t, (&BaseEvent{EndingDate: day(3)}).HasEnded(now))
	assert.False(t, (&BaseEvent{}).HasEnded(now))
}

func TestCounterpart(t *testing.T) {
	alice, bob := &User{Id: 1}, &User{Id: 2}
	r := &NetworkingRequest{SenderId: 1, ReceiverId: 2, Sender: alice, Receiver: bob}

	other, id := r.Counterpart(1)
	assert.Same(t, bob, other)
	assert.Equal(t, int64(2), id)

	other, id = r.Counterpart(2)
	assert.Same(t, alice, other)
	assert.Equal(t, int64(1), id)

	assert.True(t, r.SentBy(1))
	assert.False(t, r.SentBy(2))
}

func TestEventCode(t *testing.T) {
	assert.Equal(t, "SOLANABREAKPOINT2025_SINGAPORE", EventCode("Solana Breakpoint 2025!", "Singa-pore"))
	assert.Equal(t, "DEMODAY_", EventCode("demo day", ""))
	assert.Equal(t, "", NormalizeCode("  --  "))
}

func TestUserNetworkOther(t *testing.T) {
	scanner, scanned := &User{Id: 5}, &User{Id: 8}
	n := &UserNetwork{ScannerId: 5, ScannedId: 8, Scanner: scanner, Scanned: scanned}

	other, id := n.Other(5)
	assert.Same(t, scanned, other)
	assert.Equal(t, int64(8), id)
	other, id = n.Other(8)
	assert.Same(t, scanner, other)
	assert.Equal(t, int64(5), id)

	assert.True(t, n.HasParty(8))
	assert.False(t, n.HasParty(9))
}
