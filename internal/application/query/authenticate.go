package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest-hub/eduquest-core/internal/domain/learner"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE QUERY
// Проверяет пару логин/пароль. Логином служит имя входа или email.
// Любая причина отказа (нет учётной записи, неверный пароль) сводится
// к одной ошибке shared.ErrInvalidCredentials, чтобы не раскрывать,
// какие имена заняты.
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateQuery содержит учётные данные для проверки.
type AuthenticateQuery struct {
	// Login - имя входа или email.
	Login string

	// Password - пароль в открытом виде.
	Password string
}

// Validate проверяет корректность параметров запроса.
func (q AuthenticateQuery) Validate() error {
	if strings.TrimSpace(q.Login) == "" {
		return fmt.Errorf("login is required")
	}
	if q.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// AuthenticateResult содержит найденную учётную запись.
type AuthenticateResult struct {
	// Learner - учётная запись. PasswordHash остаётся внутри агрегата
	// и не должен сериализоваться вызывающей стороной.
	Learner *learner.Learner
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateHandler обрабатывает AuthenticateQuery.
type AuthenticateHandler struct {
	learnerRepo learner.Repository
	logger      *slog.Logger
}

// NewAuthenticateHandler создаёт новый AuthenticateHandler.
func NewAuthenticateHandler(learnerRepo learner.Repository, logger *slog.Logger) *AuthenticateHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthenticateHandler{
		learnerRepo: learnerRepo,
		logger:      logger.With("query", "authenticate"),
	}
}

// Handle проверяет учётные данные и возвращает учащегося при успехе.
func (h *AuthenticateHandler) Handle(ctx context.Context, q AuthenticateQuery) (*AuthenticateResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("authenticate: validation failed: %w", err)
	}

	lrn, err := h.lookup(ctx, strings.TrimSpace(q.Login))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(lrn.PasswordHash), []byte(q.Password)); err != nil {
		h.logger.Debug("password mismatch", "learner_id", lrn.ID)
		return nil, shared.ErrInvalidCredentials
	}

	return &AuthenticateResult{Learner: lrn}, nil
}

// lookup находит учётную запись по имени входа, а для строк с '@' - по email.
func (h *AuthenticateHandler) lookup(ctx context.Context, login string) (*learner.Learner, error) {
	if strings.Contains(login, "@") {
		email, err := shared.NewEmail(login)
		if err != nil {
			return nil, shared.ErrLearnerNotFound
		}
		return h.learnerRepo.GetByEmail(ctx, email)
	}

	username, err := shared.NewUsername(login)
	if err != nil {
		return nil, shared.ErrLearnerNotFound
	}
	return h.learnerRepo.GetByUsername(ctx, username)
}
