package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/models"
)

func seedConversation(t *testing.T, s *SQLStore, users ...*models.User) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{ID: uuid.NewString(), IsGroup: len(users) > 2, CreatedAt: t0, UpdatedAt: t0}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	require.NoError(t, s.CreateConversation(context.Background(), conv, ids))
	return conv
}

func seedMessage(t *testing.T, s *SQLStore, convID string, sender *models.User, at time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{ID: uuid.NewString(), ConversationID: convID, SenderID: sender.ID, Content: "hi " + at.Format(time.Kitchen), CreatedAt: at}
	require.NoError(t, s.SaveMessage(context.Background(), msg))
	return msg
}

func TestCreateConversation_Adds_Participants(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	alice, bob := seedUser(t, s, "alice"), seedUser(t, s, "bob")

	conv := seedConversation(t, s, alice, bob)

	got, err := s.GetConversation(context.Background(), conv.ID)
	req.NoError(err)
	req.Len(got.Participants, 2)
	req.Equal("alice", got.Participants[0].User.Username)
	req.True(t0.Equal(got.Participants[0].LastReadAt))

	ok, err := s.IsParticipant(context.Background(), conv.ID, bob.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = s.IsParticipant(context.Background(), conv.ID, "stranger")
	req.NoError(err)
	req.False(ok)
}

func TestCreateConversation_Duplicate_Participant_Rolls_Back(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	conv := &models.Conversation{ID: uuid.NewString(), CreatedAt: t0, UpdatedAt: t0}

	err := s.CreateConversation(context.Background(), conv, []string{alice.ID, alice.ID})

	require.ErrorIs(t, err, common.ErrConflict)
	_, err = s.GetConversation(context.Background(), conv.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveMessage_Moves_Conversation_To_Top(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	alice, bob, carol := seedUser(t, s, "alice"), seedUser(t, s, "bob"), seedUser(t, s, "carol")
	first := seedConversation(t, s, alice, bob)
	second := seedConversation(t, s, alice, carol)

	// Given the first conversation receives the latest message
	seedMessage(t, s, second.ID, carol, t0.Add(time.Minute))
	last := seedMessage(t, s, first.ID, bob, t0.Add(2*time.Minute))

	convs, err := s.ListConversations(context.Background(), alice.ID)
	req.NoError(err)
	req.Len(convs, 2)
	req.Equal(first.ID, convs[0].ID)
	req.Equal(last.ID, convs[0].LastMessage.ID)
	req.Equal(1, convs[0].UnreadCount)
	req.Equal(second.ID, convs[1].ID)

	// Bob only sees his conversation
	convs, err = s.ListConversations(context.Background(), bob.ID)
	req.NoError(err)
	req.Len(convs, 1)
}

func TestSaveMessage_Unknown_Conversation(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")

	err := s.SaveMessage(context.Background(), &models.Message{ID: uuid.NewString(), ConversationID: "missing", SenderID: alice.ID, Content: "x", CreatedAt: t0})

	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetMessages_Newest_First_With_Paging(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	alice, bob := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	conv := seedConversation(t, s, alice, bob)
	var sent []*models.Message
	for i := 1; i <= 5; i++ {
		sent = append(sent, seedMessage(t, s, conv.ID, alice, t0.Add(time.Duration(i)*time.Second)))
	}

	page, err := s.GetMessages(context.Background(), conv.ID, 2, 0)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(sent[4].ID, page[0].ID)
	req.Equal(sent[3].ID, page[1].ID)
	req.Equal("alice", page[0].Sender.Username)

	page, err = s.GetMessages(context.Background(), conv.ID, 2, 4)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal(sent[0].ID, page[0].ID)
}

func TestCountUnread_Follows_LastRead(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	conv := seedConversation(t, s, alice, bob)
	for i := 1; i <= 3; i++ {
		seedMessage(t, s, conv.ID, bob, t0.Add(time.Duration(i)*time.Minute))
	}

	n, err := s.CountUnread(ctx, conv.ID, alice.ID)
	req.NoError(err)
	req.Equal(3, n)

	// When alice reads up to the second message
	req.NoError(s.UpdateLastRead(ctx, conv.ID, alice.ID, t0.Add(2*time.Minute)))
	n, err = s.CountUnread(ctx, conv.ID, alice.ID)
	req.NoError(err)
	req.Equal(1, n)

	_, err = s.CountUnread(ctx, conv.ID, "stranger")
	req.ErrorIs(err, common.ErrNotFound)
	req.ErrorIs(s.UpdateLastRead(ctx, conv.ID, "stranger", t0), common.ErrNotFound)
}

func TestDeleteConversation_Removes_Everything(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	ctx := context.Background()
	alice, bob := seedUser(t, s, "alice"), seedUser(t, s, "bob")
	conv := seedConversation(t, s, alice, bob)
	seedMessage(t, s, conv.ID, alice, t0.Add(time.Second))

	req.NoError(s.DeleteConversation(ctx, conv.ID))

	_, err := s.GetConversation(ctx, conv.ID)
	req.ErrorIs(err, common.ErrNotFound)
	msgs, err := s.GetMessages(ctx, conv.ID, 10, 0)
	req.NoError(err)
	req.Empty(msgs)
	convs, err := s.ListConversations(ctx, alice.ID)
	req.NoError(err)
	req.Empty(convs)

	req.ErrorIs(s.DeleteConversation(ctx, conv.ID), common.ErrNotFound)
}
