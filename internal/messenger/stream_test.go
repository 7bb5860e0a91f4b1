package messenger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentmatch/messaging-service/internal/model"
)

func durable(id, sender, receiver string, at time.Time) model.Message {
	return model.Message{
		ID:             id,
		ConversationID: "conv",
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        "content " + id,
		CreatedAt:      at,
		State:          model.MessageConfirmed,
	}
}

func ids(list model.MessageList) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}

func TestStream_AppendIncoming(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("keeps_ascending_order", func(t *testing.T) {
		var s stream
		s.reset("conv")

		assert.True(t, s.appendIncoming(durable("m2", "bob", "alice", base.Add(2*time.Second))))
		assert.True(t, s.appendIncoming(durable("m1", "bob", "alice", base.Add(time.Second))))
		assert.True(t, s.appendIncoming(durable("m3", "bob", "alice", base.Add(3*time.Second))))

		assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s.messages))
	})

	t.Run("equal_timestamps_keep_arrival_order", func(t *testing.T) {
		var s stream
		s.reset("conv")

		s.appendIncoming(durable("m1", "bob", "alice", base))
		s.appendIncoming(durable("m2", "bob", "alice", base))

		assert.Equal(t, []string{"m1", "m2"}, ids(s.messages))
	})

	t.Run("duplicate_id_ignored", func(t *testing.T) {
		var s stream
		s.reset("conv")

		assert.True(t, s.appendIncoming(durable("m1", "bob", "alice", base)))
		assert.False(t, s.appendIncoming(durable("m1", "bob", "alice", base)))

		assert.Len(t, s.messages, 1)
	})
}

func TestStream_Confirm(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	pending := model.Message{
		ID:             model.TempIDPrefix + "1",
		ClientID:       "client-1",
		ConversationID: "conv",
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "hello",
		CreatedAt:      base,
		State:          model.MessagePending,
	}

	t.Run("replaces_pending", func(t *testing.T) {
		var s stream
		s.reset("conv")
		s.addPending(pending)

		row := durable("m1", "alice", "bob", base.Add(time.Millisecond))
		row.ClientID = "client-1"

		assert.True(t, s.confirm("client-1", row))
		require.Len(t, s.messages, 1)
		assert.Equal(t, "m1", s.messages[0].ID)
		assert.Equal(t, model.MessageConfirmed, s.messages[0].State)
	})

	t.Run("second_confirmation_is_noop", func(t *testing.T) {
		var s stream
		s.reset("conv")
		s.addPending(pending)

		row := durable("m1", "alice", "bob", base)
		row.ClientID = "client-1"

		assert.True(t, s.confirm("client-1", row))
		assert.False(t, s.confirm("client-1", row))
		assert.Len(t, s.messages, 1)
	})

	t.Run("unknown_client_id", func(t *testing.T) {
		var s stream
		s.reset("conv")
		s.addPending(pending)

		row := durable("m1", "alice", "bob", base)
		row.ClientID = "other"

		assert.False(t, s.confirm("other", row))
		assert.Equal(t, []string{pending.ID}, ids(s.messages))
	})

	t.Run("fail_marks_pending_only", func(t *testing.T) {
		var s stream
		s.reset("conv")
		s.addPending(pending)

		assert.True(t, s.fail("client-1"))
		assert.Equal(t, model.MessageFailed, s.messages[0].State)
		assert.False(t, s.fail("client-1"))
	})
}

func TestStream_ReplaceHistory(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("keeps_entries_unknown_to_history", func(t *testing.T) {
		var s stream
		s.reset("conv")

		s.appendIncoming(durable("late", "bob", "alice", base.Add(5*time.Second)))
		s.addPending(model.Message{
			ID:        model.TempIDPrefix + "1",
			ClientID:  "client-1",
			SenderID:  "alice",
			CreatedAt: base.Add(6 * time.Second),
			State:     model.MessagePending,
		})

		s.replaceHistory(model.MessageList{
			durable("m1", "bob", "alice", base),
			durable("m2", "alice", "bob", base.Add(time.Second)),
		})

		assert.Equal(t, []string{"m1", "m2", "late", model.TempIDPrefix + "1"}, ids(s.messages))
	})

	t.Run("drops_pending_already_stored", func(t *testing.T) {
		var s stream
		s.reset("conv")

		s.addPending(model.Message{
			ID:        model.TempIDPrefix + "1",
			ClientID:  "client-1",
			SenderID:  "alice",
			CreatedAt: base,
			State:     model.MessagePending,
		})

		row := durable("m1", "alice", "bob", base)
		row.ClientID = "client-1"
		s.replaceHistory(model.MessageList{row})

		assert.Equal(t, []string{"m1"}, ids(s.messages))
	})

	t.Run("history_duplicates_collapse", func(t *testing.T) {
		var s stream
		s.reset("conv")

		s.replaceHistory(model.MessageList{
			durable("m1", "bob", "alice", base),
			durable("m1", "bob", "alice", base),
		})

		assert.Len(t, s.messages, 1)
	})
}

func TestStream_MarkRead(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var s stream
	s.reset("conv")
	s.appendIncoming(durable("in", "bob", "alice", base))
	s.appendIncoming(durable("out", "alice", "bob", base.Add(time.Second)))

	assert.True(t, s.markRead("alice"))
	assert.True(t, s.messages[0].IsRead)
	assert.False(t, s.messages[1].IsRead)
	assert.False(t, s.markRead("alice"))
}
