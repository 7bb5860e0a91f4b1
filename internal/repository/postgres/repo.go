package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/model"
)

const uniqueViolation = "23505"

var ErrSameParticipant = errors.New("conversation requires two different participants")

type txKey struct{}

type executor interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Repository struct {
	connection *sqlx.DB
}

func New(cfg *config.Config) *Repository {
	conn, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatal("error connect: ", err)
	}

	return &Repository{
		connection: conn,
	}
}

// NewFromDSN is used where a failed connection must not exit the process.
func NewFromDSN(dsn string) (*Repository, error) {
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &Repository{
		connection: conn,
	}, nil
}

func (r *Repository) Close() {
	_ = r.connection.Close()
}

func (r *Repository) Chk(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}

	return r.connection
}

func (r *Repository) WithTx(ctx context.Context, cb func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return cb(ctx)
	}

	tx, err := r.connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}

	if err := cb(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *Repository) GetConversations(ctx context.Context, identity string) (model.ConversationPreviewList, error) {
	unread, unreadArgs, err := sq.Select("COUNT(*)").
		From("messages m").
		Where("m.conversation_id = c.id").
		Where(sq.Eq{"m.receiver_id": identity, "m.is_read": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	query, args, err := sq.Select(
		"c.id",
		"c.participant1_id",
		"c.participant2_id",
		"c.last_message",
		"c.updated_at",
	).
		Column(sq.Alias(sq.Expr("("+unread+")", unreadArgs...), "unread_count")).
		From("conversations c").
		Where(sq.Or{
			sq.Eq{"c.participant1_id": identity},
			sq.Eq{"c.participant2_id": identity},
		}).
		OrderBy("c.updated_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversations model.ConversationPreviewList
	err = r.Chk(ctx).SelectContext(ctx, &conversations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %v", err)
	}

	return conversations, nil
}

func (r *Repository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	query, args, err := sq.Select("id", "participant1_id", "participant2_id", "last_message", "updated_at").
		From("conversations").
		Where(sq.Eq{"id": conversationID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversation model.Conversation
	err = r.Chk(ctx).GetContext(ctx, &conversation, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}

	return &conversation, nil
}

// FindConversation looks the pair up in both participant orders.
func (r *Repository) FindConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, error) {
	query, args, err := sq.Select("id", "participant1_id", "participant2_id", "last_message", "updated_at").
		From("conversations").
		Where(sq.Or{
			sq.Eq{"participant1_id": participantA, "participant2_id": participantB},
			sq.Eq{"participant1_id": participantB, "participant2_id": participantA},
		}).
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversation model.Conversation
	err = r.Chk(ctx).GetContext(ctx, &conversation, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %v", err)
	}

	return &conversation, nil
}

func (r *Repository) CreateConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, error) {
	query, args, err := sq.Insert("conversations").
		Columns("participant1_id", "participant2_id").
		Values(participantA, participantB).
		Suffix("RETURNING id, participant1_id, participant2_id, last_message, updated_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var conversation model.Conversation
	err = r.Chk(ctx).GetContext(ctx, &conversation, query, args...)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// FindOrCreateConversation returns the conversation of the unordered pair and
// whether it was created by this call. A concurrent creator losing the race on
// the pair index reads the winner's row.
func (r *Repository) FindOrCreateConversation(ctx context.Context, participantA, participantB string) (*model.Conversation, bool, error) {
	if participantA == participantB {
		return nil, false, ErrSameParticipant
	}

	conversation, err := r.FindConversation(ctx, participantA, participantB)
	if err != nil {
		return nil, false, err
	}
	if conversation != nil {
		return conversation, false, nil
	}

	conversation, err = r.CreateConversation(ctx, participantA, participantB)
	if err == nil {
		return conversation, true, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil, false, fmt.Errorf("failed to create conversation: %v", err)
	}
	if _, inTx := ctx.Value(txKey{}).(*sqlx.Tx); inTx {
		// the failed insert aborted the transaction, the caller has to retry
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}

	conversation, err = r.FindConversation(ctx, participantA, participantB)
	if err != nil {
		return nil, false, err
	}
	if conversation == nil {
		return nil, false, fmt.Errorf("conversation vanished after unique violation")
	}

	return conversation, false, nil
}

func (r *Repository) UpdateConversationSummary(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	query, args, err := sq.Update("conversations").
		Set("last_message", lastMessage).
		Set("updated_at", at).
		Where(sq.And{sq.Eq{"id": conversationID}, sq.LtOrEq{"updated_at": at}}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %v", err)
	}

	return nil
}

func (r *Repository) GetMessages(ctx context.Context, conversationID string) (model.MessageList, error) {
	query, args, err := sq.Select(
		"id",
		"client_id",
		"conversation_id",
		"sender_id",
		"receiver_id",
		"content",
		"created_at",
		"is_read",
	).
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var messages model.MessageList
	err = r.Chk(ctx).SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}

	for i := range messages {
		messages[i].State = model.MessageConfirmed
	}

	return messages, nil
}

func (r *Repository) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	query, args, err := sq.Select(
		"id",
		"client_id",
		"conversation_id",
		"sender_id",
		"receiver_id",
		"content",
		"created_at",
		"is_read",
	).
		From("messages").
		Where(sq.Eq{"id": messageID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var message model.Message
	err = r.Chk(ctx).GetContext(ctx, &message, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %v", err)
	}
	message.State = model.MessageConfirmed

	return &message, nil
}

// SaveMessage inserts the message and returns the stored row; id and
// created_at are assigned by the database.
func (r *Repository) SaveMessage(ctx context.Context, message *model.Message) (*model.Message, error) {
	query, args, err := sq.Insert("messages").
		Columns("client_id", "conversation_id", "sender_id", "receiver_id", "content").
		Values(message.ClientID, message.ConversationID, message.SenderID, message.ReceiverID, message.Content).
		Suffix("RETURNING id, client_id, conversation_id, sender_id, receiver_id, content, created_at, is_read").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var saved model.Message
	err = r.Chk(ctx).GetContext(ctx, &saved, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %v", err)
	}
	saved.State = model.MessageConfirmed

	return &saved, nil
}

// MarkConversationRead flips every unread message addressed to identity.
func (r *Repository) MarkConversationRead(ctx context.Context, conversationID, identity string) (int64, error) {
	query, args, err := sq.Update("messages").
		Set("is_read", true).
		Where(sq.Eq{
			"conversation_id": conversationID,
			"receiver_id":     identity,
			"is_read":         false,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %v", err)
	}

	res, err := r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %v", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %v", err)
	}

	return updated, nil
}

func (r *Repository) CreateNotification(ctx context.Context, notification *model.Notification) error {
	query, args, err := sq.Insert("notifications").
		Columns("user_id", "type", "content", "link").
		Values(notification.UserID, notification.Type, notification.Content, notification.Link).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	err = r.Chk(ctx).GetContext(ctx, notification, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create notification: %v", err)
	}

	return nil
}

func (r *Repository) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	profiles := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	query, args, err := sq.Select("id", "nickname", "avatar_url").
		From("profiles").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var rows []model.Profile
	err = r.Chk(ctx).SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %v", err)
	}

	for _, p := range rows {
		profiles[p.ID] = p
	}

	return profiles, nil
}

// UpsertProfile keeps the stored value of any empty field.
func (r *Repository) UpsertProfile(ctx context.Context, profile model.Profile) error {
	query, args, err := sq.Insert("profiles").
		Columns("id", "nickname", "avatar_url").
		Values(profile.ID, profile.Nickname, profile.AvatarURL).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			nickname = COALESCE(NULLIF(EXCLUDED.nickname, ''), profiles.nickname),
			avatar_url = COALESCE(NULLIF(EXCLUDED.avatar_url, ''), profiles.avatar_url),
			updated_at = now()`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.Chk(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %v", err)
	}

	return nil
}
