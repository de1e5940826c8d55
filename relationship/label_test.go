package relationship

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkline/models"
)

func fr(id, sender, receiver models.ID, status models.FriendshipStatus) models.Friendship {
	return models.Friendship{ID: id, SenderID: sender, ReceiverID: receiver, Status: status}
}

func TestLabelFor(t *testing.T) {
	const me, other models.ID = 7, 5

	tests := []struct {
		name        string
		friendships []models.Friendship
		want        Label
	}{
		{"no record", nil, None},
		{"record with someone else", []models.Friendship{fr(1, me, 9, models.FriendshipAccepted)}, None},
		{"accepted, I sent", []models.Friendship{fr(1, me, other, models.FriendshipAccepted)}, Friend},
		{"accepted, they sent", []models.Friendship{fr(1, other, me, models.FriendshipAccepted)}, Friend},
		{"pending, I sent", []models.Friendship{fr(1, me, other, models.FriendshipPending)}, PendingSent},
		{"pending, they sent", []models.Friendship{fr(1, other, me, models.FriendshipPending)}, PendingIncoming},
		{"blocked by me", []models.Friendship{fr(1, me, other, models.FriendshipBlocked)}, BlockedByMe},
		{"blocked by them", []models.Friendship{fr(1, other, me, models.FriendshipBlocked)}, BlockedByThem},
		{"unknown status", []models.Friendship{fr(1, other, me, "archived")}, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LabelFor(me, tt.friendships, other)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, LabelFor(me, tt.friendships, other), "pure function")
		})
	}
}

func TestLabelForIsSymmetricInMeaning(t *testing.T) {
	const a, b models.ID = 1, 2
	mirror := map[Label]Label{
		None:            None,
		Friend:          Friend,
		PendingSent:     PendingIncoming,
		PendingIncoming: PendingSent,
		BlockedByMe:     BlockedByThem,
		BlockedByThem:   BlockedByMe,
	}

	records := [][]models.Friendship{
		nil,
		{fr(1, a, b, models.FriendshipAccepted)},
		{fr(1, b, a, models.FriendshipAccepted)},
		{fr(1, a, b, models.FriendshipPending)},
		{fr(1, b, a, models.FriendshipPending)},
		{fr(1, a, b, models.FriendshipBlocked)},
		{fr(1, b, a, models.FriendshipBlocked)},
	}
	for _, rs := range records {
		fromA := LabelFor(a, rs, b)
		fromB := LabelFor(b, rs, a)
		assert.Equal(t, mirror[fromA], fromB, "records %+v", rs)
	}
}

func TestCheckTransitionTable(t *testing.T) {
	allowed := map[Action][]Label{
		SendRequest: {None},
		Accept:      {PendingIncoming},
		Reject:      {PendingIncoming},
		Cancel:      {PendingSent},
		Block:       {Friend, None},
		Unblock:     {BlockedByMe},
		Unfriend:    {Friend},
	}
	labels := []Label{None, PendingSent, PendingIncoming, Friend, BlockedByMe, BlockedByThem}

	for action, okLabels := range allowed {
		for _, l := range labels {
			err := Check(l, action)
			if containsLabel(okLabels, l) {
				assert.NoError(t, err, "%s from %s", action, l)
				continue
			}
			require.Error(t, err, "%s from %s", action, l)
			assert.True(t, errors.Is(err, ErrPrecondition))
			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, action, pe.Action)
			assert.Equal(t, l, pe.Label)
		}
	}
}

func containsLabel(ls []Label, l Label) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}

func TestActionsBlockedByThemHasNoControls(t *testing.T) {
	assert.Empty(t, Actions(BlockedByThem))
}

func TestOutcome(t *testing.T) {
	l, eff := Outcome(None, Block)
	assert.Equal(t, BlockedByMe, l)
	assert.Equal(t, EffectCreate, eff)

	l, eff = Outcome(Friend, Block)
	assert.Equal(t, BlockedByMe, l)
	assert.Equal(t, EffectUpdate, eff)

	l, eff = Outcome(BlockedByMe, Unblock)
	assert.Equal(t, None, l)
	assert.Equal(t, EffectDelete, eff)
}

func TestParseRoundTrip(t *testing.T) {
	for _, l := range []Label{None, PendingSent, PendingIncoming, Friend, BlockedByMe, BlockedByThem} {
		got, err := ParseLabel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLabel("stranger")
	assert.Error(t, err)

	a, err := ParseAction("unfriend")
	require.NoError(t, err)
	assert.Equal(t, Unfriend, a)
}

func TestSelect(t *testing.T) {
	const me models.ID = 7
	rows := []models.Friendship{
		{ID: 1, SenderID: me, ReceiverID: 2, Status: models.FriendshipAccepted, OtherUserName: "2 - Ada Lovelace"},
		{ID: 2, SenderID: 3, ReceiverID: me, Status: models.FriendshipPending, OtherUserName: "3 - Alan Turing"},
		{ID: 3, SenderID: me, ReceiverID: 4, Status: models.FriendshipPending, OtherUserName: "4 - Grace Hopper"},
		{ID: 4, SenderID: me, ReceiverID: 5, Status: models.FriendshipBlocked, OtherUserName: "5 - Bob"},
		{ID: 5, SenderID: 6, ReceiverID: me, Status: models.FriendshipBlocked, OtherUserName: "6 - Eve"},
		{ID: 6, SenderID: 8, ReceiverID: me, Status: models.FriendshipAccepted, OtherUserName: "8 - Adam Smith"},
	}

	friends := Select(me, rows, FilterFriends, "")
	require.Len(t, friends, 2)
	assert.Equal(t, []Action{Unfriend, Block}, friends[0].Actions)

	narrowed := Select(me, rows, FilterFriends, "  ADA ")
	require.Len(t, narrowed, 1)
	assert.Equal(t, models.ID(1), narrowed[0].Friendship.ID)

	incoming := Select(me, rows, FilterIncoming, "")
	require.Len(t, incoming, 1)
	assert.Equal(t, PendingIncoming, incoming[0].Label)

	sent := Select(me, rows, FilterSent, "")
	require.Len(t, sent, 1)
	assert.Equal(t, models.ID(3), sent[0].Friendship.ID)

	blocked := Select(me, rows, FilterBlocked, "")
	require.Len(t, blocked, 1)
	assert.Equal(t, models.ID(4), blocked[0].Friendship.ID)

	assert.Empty(t, Select(me, rows, FilterSent, "nobody"))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterFriends, f)

	_, err = ParseFilter("everyone")
	assert.Error(t, err)
}
