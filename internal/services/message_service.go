// MessageService owns the query/reply cycle of a session. It validates the
// query, checks session ownership, asks the assistant composer for a reply
// phrased for the session's role, and persists the user message and the
// assistant reply atomically. The first query of a session also renames it.
//
// Public methods open OpenTelemetry spans and every composed reply is
// counted in the assistant Prometheus metrics.

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/assistant"
	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"
)

// DefaultIdempotencyTTL bounds replays when MessageService.IdempotencyTTL is
// unset.
const DefaultIdempotencyTTL = 24 * time.Hour

// Composer produces a reply for a query. *assistant.Composer satisfies it.
type Composer interface {
	Compose(ctx context.Context, role, query string) (string, assistant.Outcome)
}

// MessageService coordinates transcript persistence and composed replies.
type MessageService struct {
	DB       *gorm.DB
	Composer Composer

	// Optional guards
	MaxPromptRunes int
	MaxReplyRunes  int

	// IdempotencyTTL is how long AnswerOnce can replay a reply
	// (DefaultIdempotencyTTL when unset).
	IdempotencyTTL time.Duration

	// Auto-titles use TitleLocale's casing (English when unset) and are
	// clipped to TitleMaxLen runes (60 when unset).
	TitleLocale language.Tag
	TitleMaxLen int
}

// Answer validates prompt, verifies the session, composes a reply and
// persists the user message and the reply in one transaction. The returned
// message is the assistant reply; its ReplyTo points at the stored query.
func (s *MessageService) Answer(ctx context.Context, userID, sessionID, prompt, clientQueryID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	sess, err := repo.GetSession(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	reply, out := s.Composer.Compose(ctx, sess.Role, prompt)
	observeOutcome(out)
	span.SetAttributes(
		attribute.String("assistant.intent", string(out.Intent)),
		attribute.String("assistant.source", string(out.Source)),
	)
	if out.Err != nil {
		zerolog.Ctx(ctx).Debug().Err(out.Err).
			Str("session_id", sessionID).
			Str("intent", string(out.Intent)).
			Msg("reply degraded")
	}
	reply = clipRunes(reply, s.MaxReplyRunes)

	var assistantMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		userMsg := &domain.Message{
			SessionID:     sessionID,
			Sender:        domain.SenderUser,
			Content:       prompt,
			ClientQueryID: clientQueryID,
			CreatedAt:     now,
		}
		if err := repo.AppendMessage(tx, userMsg); err != nil {
			return err
		}
		m := &domain.Message{
			SessionID:     sessionID,
			Sender:        domain.SenderAssistant,
			Content:       reply,
			Intent:        string(out.Intent),
			Source:        string(out.Source),
			ReplyTo:       &userMsg.ID,
			ClientQueryID: clientQueryID,
			// Strictly after the query so transcript order is stable.
			CreatedAt: now.Add(time.Microsecond),
		}
		if err := repo.AppendMessage(tx, m); err != nil {
			return err
		}
		assistantMsg = m

		updates := map[string]any{"updated_at": now}
		if isPlaceholderTitle(sess.Title) {
			if t := titleFromPrompt(prompt, s.TitleLocale); t != "" {
				updates["title"] = clipRunes(t, s.titleRunes())
			}
		}
		return tx.Model(&domain.Session{}).Where("id = ?", sessionID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return assistantMsg, nil
}

// AnswerOnce is Answer made safe to retry under an idempotency key; an empty
// key makes it plain Answer. When a live record exists for (user, session,
// key), the same prompt gets the recorded reply back with replayed set, and a
// different prompt fails with ErrIdempotencyReused without reaching the
// composer. Recording a fresh reply is best effort.
func (s *MessageService) AnswerOnce(ctx context.Context, userID, sessionID, prompt, clientQueryID, key string) (m *domain.Message, replayed bool, err error) {
	if key == "" {
		m, err = s.Answer(ctx, userID, sessionID, prompt, clientQueryID)
		return m, false, err
	}

	scope := repo.IdemScope{UserID: userID, SessionID: sessionID, Key: key}
	hash := promptHash(prompt)
	if rec, err := repo.FindIdempotency(ctx, s.DB, scope, time.Now().UTC()); err == nil {
		if !rec.Matches(hash) {
			return nil, false, ErrIdempotencyReused
		}
		if prev, err := repo.GetSessionMessage(s.DB.WithContext(ctx), sessionID, rec.MessageID); err == nil {
			return prev, true, nil
		}
	}

	m, err = s.Answer(ctx, userID, sessionID, prompt, clientQueryID)
	if err != nil {
		return nil, false, err
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if _, err := repo.SaveIdempotency(ctx, s.DB, scope, hash, m.ID, http.StatusOK, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("idempotency record not saved")
	}
	return m, false, nil
}

// promptHash fingerprints a prompt so a retry can be told apart from a
// reused key.
func promptHash(prompt string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])
}

// Version summarises the transcript for conditional GETs. It checks
// ownership first, so a foreign session yields ErrSessionNotFound.
func (s *MessageService) Version(ctx context.Context, userID, sessionID string) (repo.ListVersion, error) {
	if _, err := repo.GetSession(ctx, s.DB, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ListVersion{}, ErrSessionNotFound
		}
		return repo.ListVersion{}, err
	}
	return repo.MessagesVersion(ctx, s.DB, sessionID)
}

// ListPage returns a page of a session's transcript, oldest first.
func (s *MessageService) ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = utils.ClampPage(page, pageSize)
	offset := utils.Offset(page, pageSize)

	if _, err := repo.GetSession(ctx, s.DB, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), sessionID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), sessionID, offset, pageSize)
	return items, total, err
}

// Get returns one message of a session owned by userID.
func (s *MessageService) Get(ctx context.Context, userID, sessionID, messageID string) (*domain.Message, error) {
	if _, err := repo.GetSession(ctx, s.DB, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	m, err := repo.GetMessage(s.DB.WithContext(ctx), messageID)
	if err != nil {
		return nil, err
	}
	if m.SessionID != sessionID {
		return nil, repo.ErrNotFound
	}
	return m, nil
}

func (s *MessageService) titleRunes() int {
	if s.TitleMaxLen > 0 {
		return s.TitleMaxLen
	}
	return defaultTitleRunes
}
