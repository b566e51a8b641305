// SessionService manages the lifecycle of assistant sessions. It validates
// and normalizes titles, enforces ownership, and opens every new session with
// the assistant's welcome message so the transcript never starts empty.
// Automatic titling happens in MessageService on the first user query.

package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/assistant"
	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/utils"
)

// DefaultSessionTitle is stored until the first query renames the session.
const DefaultSessionTitle = "New chat"

// WelcomeMessage is the assistant's first message in every session.
const WelcomeMessage = "Hello! 👋 I'm your AI business assistant. I can help you with:\n\n" +
	"📦 **Product & Inventory**: Check SKU availability, stock levels, and product information\n" +
	"📋 **Claims Management**: Review warranty claims, returns, and their status\n" +
	"📊 **Sales Analytics**: Analyze sales performance, revenue trends, and dealer insights\n" +
	"🔍 **Smart Search**: Find specific data across your business operations\n\n" +
	"What would you like to explore today?"

// SessionRepo defines the persistence contract required by SessionService.
type SessionRepo interface {
	CreateSession(ctx context.Context, db *gorm.DB, userID, role, title string) (*domain.Session, error)
	GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error)
	UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error
	CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error)
	AppendMessage(db *gorm.DB, m *domain.Message) error
}

// SessionService provides session-level operations.
type SessionService struct {
	DB   *gorm.DB
	Repo SessionRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewSessionService constructs a SessionService with a 60-rune title cap.
// A nil repo uses the gorm-backed functions of package repo.
func NewSessionService(db *gorm.DB, r SessionRepo) *SessionService {
	if r == nil {
		r = sqlSessions{}
	}
	return &SessionService{DB: db, Repo: r, TitleMaxLen: 60}
}

// sqlSessions adapts the repo package functions to SessionRepo.
type sqlSessions struct{}

func (sqlSessions) CreateSession(ctx context.Context, db *gorm.DB, userID, role, title string) (*domain.Session, error) {
	return repo.CreateSession(ctx, db, userID, role, title)
}
func (sqlSessions) GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error) {
	return repo.GetSession(ctx, db, id, userID)
}
func (sqlSessions) UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateSessionTitle(ctx, db, id, userID, title)
}
func (sqlSessions) CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountSessions(ctx, db, userID)
}
func (sqlSessions) ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, userID, offset, limit)
}
func (sqlSessions) AppendMessage(db *gorm.DB, m *domain.Message) error {
	return repo.AppendMessage(db, m)
}

// Create opens a session for userID with the given role and appends the
// welcome message in the same transaction. A blank title falls back to
// DefaultSessionTitle.
func (s *SessionService) Create(ctx context.Context, userID, role, title string) (*domain.Session, *domain.Message, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = DefaultSessionTitle
	}
	role = normalizeRole(role)

	var (
		sess    *domain.Session
		welcome *domain.Message
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sess, err = s.Repo.CreateSession(ctx, tx, userID, role, clipRunes(title, s.TitleMaxLen))
		if err != nil {
			return err
		}
		welcome = &domain.Message{
			SessionID: sess.ID,
			Sender:    domain.SenderAssistant,
			Content:   WelcomeMessage,
			Source:    string(assistant.SourceLocal),
		}
		return s.Repo.AppendMessage(tx, welcome)
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, welcome, nil
}

// Get returns a session owned by userID, or ErrSessionNotFound.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	sess, err := s.Repo.GetSession(ctx, s.DB, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// ListPage returns a page of sessions for a user and the total count.
func (s *SessionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error) {
	page, pageSize = utils.ClampPage(page, pageSize)
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}

	items, err := s.Repo.ListSessionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Version summarises userID's session list for conditional GETs.
func (s *SessionService) Version(ctx context.Context, userID string) (repo.ListVersion, error) {
	return repo.SessionsVersion(ctx, s.DB, userID)
}

// UpdateTitle renames a session owned by userID. A blank title becomes
// "Untitled".
func (s *SessionService) UpdateTitle(ctx context.Context, userID, sessionID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = "Untitled"
	}
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.Repo.UpdateSessionTitle(ctx, s.DB, sessionID, userID, clipRunes(title, s.TitleMaxLen))
}

// normalizeTitle trims whitespace and collapses runs of it to one space.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// normalizeRole keeps the known roles and maps anything else to "".
func normalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case domain.RoleDealer, domain.RoleSalesRep, domain.RoleAdmin:
		return r
	default:
		return ""
	}
}

var whitespaceRE = regexp.MustCompile(`\s+`)
