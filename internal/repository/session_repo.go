package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moonai-trainer/internal/domain"
)

// SessionFilter acota listados y conteos de sesiones.
type SessionFilter struct {
	ManagerName string
	Status      string
}

// SortField es el conjunto cerrado de columnas ordenables. Cualquier entrada
// desconocida se normaliza al default en vez de resolverse dinámicamente.
type SortField string

const (
	SortBySessionStart SortField = "session_start"
	SortBySessionEnd   SortField = "session_end"
	SortByManagerName  SortField = "manager_name"
	SortByScore        SortField = "score"
	SortByStatus       SortField = "status"
	SortByID           SortField = "id"

	DefaultSortField = SortBySessionStart
)

var sortFields = map[string]SortField{
	"session_start": SortBySessionStart,
	"session_end":   SortBySessionEnd,
	"manager_name":  SortByManagerName,
	"score":         SortByScore,
	"status":        SortByStatus,
	"id":            SortByID,
}

// NormalizeSortField mapea el nombre pedido por el cliente a una columna
// permitida; lo desconocido cae al default, nunca falla.
func NormalizeSortField(raw string) SortField {
	if f, ok := sortFields[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return f
	}
	return DefaultSortField
}

// NormalizeSortDir acepta asc/desc (case-insensitive); default desc.
func NormalizeSortDir(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "asc") {
		return "ASC"
	}
	return "DESC"
}

// UpdateSessionInput describe una actualización parcial; solo los punteros
// no nulos se escriben.
type UpdateSessionInput struct {
	ManagerName         *string
	ClientDescription   *string
	DifficultyLevel     *string
	ClientType          *string
	FirstMessage        *string
	SessionSystemPrompt *string
	SignedWSURL         *string
	ConversationID      *string
	SessionEnd          *time.Time
	ConversationLog     *string
	AIAnalysis          *string
	Score               *float64
	Feedback            *string
	Status              *string
}

// TrainingSessionRepository define el contrato de persistencia de sesiones.
type TrainingSessionRepository interface {
	Create(ctx context.Context, session domain.TrainingSession) (domain.TrainingSession, error)
	GetByID(ctx context.Context, id int64) (domain.TrainingSession, error)
	List(ctx context.Context, filter SessionFilter, sortBy SortField, sortDir string, offset, limit int) ([]domain.TrainingSession, error)
	Count(ctx context.Context, filter SessionFilter) (int64, error)
	Update(ctx context.Context, id int64, input UpdateSessionInput) (domain.TrainingSession, error)
	// Complete registra transcripción y cierre solo si la sesión sigue activa.
	// Devuelve false si la fila existe pero ya estaba completada.
	Complete(ctx context.Context, id int64, conversationLog string, sessionEnd time.Time) (bool, error)
	SetAnalysis(ctx context.Context, id int64, aiAnalysis string, score *float64, feedback string) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// PgTrainingSessionRepository implementa TrainingSessionRepository con pgxpool.
type PgTrainingSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTrainingSessionRepository(pool *pgxpool.Pool) *PgTrainingSessionRepository {
	return &PgTrainingSessionRepository{pool: pool}
}

const sessionColumns = `
	id, user_id, manager_name, client_description, difficulty_level, client_type,
	first_message, session_system_prompt, signed_ws_url, conversation_id,
	session_start, session_end, conversation_log, ai_analysis, score, feedback, status
`

func scanSession(row pgx.Row) (domain.TrainingSession, error) {
	var s domain.TrainingSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.ManagerName,
		&s.ClientDescription,
		&s.DifficultyLevel,
		&s.ClientType,
		&s.FirstMessage,
		&s.SessionSystemPrompt,
		&s.SignedWSURL,
		&s.ConversationID,
		&s.SessionStart,
		&s.SessionEnd,
		&s.ConversationLog,
		&s.AIAnalysis,
		&s.Score,
		&s.Feedback,
		&s.Status,
	)
	return s, err
}

func (r *PgTrainingSessionRepository) Create(ctx context.Context, session domain.TrainingSession) (domain.TrainingSession, error) {
	const query = `
		INSERT INTO training_sessions (
			user_id, manager_name, client_description, difficulty_level, client_type,
			first_message, session_system_prompt, signed_ws_url, conversation_id,
			session_start, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + sessionColumns
	return scanSession(r.pool.QueryRow(ctx, query,
		session.UserID,
		session.ManagerName,
		session.ClientDescription,
		session.DifficultyLevel,
		session.ClientType,
		session.FirstMessage,
		session.SessionSystemPrompt,
		session.SignedWSURL,
		session.ConversationID,
		session.SessionStart,
		session.Status,
	))
}

func (r *PgTrainingSessionRepository) GetByID(ctx context.Context, id int64) (domain.TrainingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE id = $1
	`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *PgTrainingSessionRepository) List(ctx context.Context, filter SessionFilter, sortBy SortField, sortDir string, offset, limit int) ([]domain.TrainingSession, error) {
	where, args := buildSessionFilter(filter)
	if sortDir != "ASC" {
		sortDir = "DESC"
	}
	if _, ok := sortFields[string(sortBy)]; !ok {
		sortBy = DefaultSortField
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM training_sessions
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, sessionColumns, where, sortBy, sortDir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.TrainingSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PgTrainingSessionRepository) Count(ctx context.Context, filter SessionFilter) (int64, error) {
	where, args := buildSessionFilter(filter)
	query := "SELECT COUNT(*) FROM training_sessions " + where

	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func buildSessionFilter(filter SessionFilter) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if strings.TrimSpace(filter.ManagerName) != "" {
		args = append(args, strings.TrimSpace(filter.ManagerName))
		clauses = append(clauses, fmt.Sprintf("manager_name = $%d", len(args)))
	}
	if strings.TrimSpace(filter.Status) != "" {
		args = append(args, strings.TrimSpace(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PgTrainingSessionRepository) Update(ctx context.Context, id int64, input UpdateSessionInput) (domain.TrainingSession, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.ManagerName != nil {
		add("manager_name", *input.ManagerName)
	}
	if input.ClientDescription != nil {
		add("client_description", *input.ClientDescription)
	}
	if input.DifficultyLevel != nil {
		add("difficulty_level", *input.DifficultyLevel)
	}
	if input.ClientType != nil {
		add("client_type", *input.ClientType)
	}
	if input.FirstMessage != nil {
		add("first_message", *input.FirstMessage)
	}
	if input.SessionSystemPrompt != nil {
		add("session_system_prompt", *input.SessionSystemPrompt)
	}
	if input.SignedWSURL != nil {
		add("signed_ws_url", *input.SignedWSURL)
	}
	if input.ConversationID != nil {
		add("conversation_id", *input.ConversationID)
	}
	if input.SessionEnd != nil {
		add("session_end", *input.SessionEnd)
	}
	if input.ConversationLog != nil {
		add("conversation_log", *input.ConversationLog)
	}
	if input.AIAnalysis != nil {
		add("ai_analysis", *input.AIAnalysis)
	}
	if input.Score != nil {
		add("score", *input.Score)
	}
	if input.Feedback != nil {
		add("feedback", *input.Feedback)
	}
	if input.Status != nil {
		add("status", *input.Status)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE training_sessions
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args), sessionColumns)

	return scanSession(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgTrainingSessionRepository) Complete(ctx context.Context, id int64, conversationLog string, sessionEnd time.Time) (bool, error) {
	// La condición sobre status serializa completados duplicados en el storage.
	const query = `
		UPDATE training_sessions
		SET conversation_log = $2, session_end = $3, status = $4
		WHERE id = $1 AND status = $5
	`
	tag, err := r.pool.Exec(ctx, query, id, conversationLog, sessionEnd,
		domain.SessionStatusCompleted, domain.SessionStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgTrainingSessionRepository) SetAnalysis(ctx context.Context, id int64, aiAnalysis string, score *float64, feedback string) error {
	const query = `
		UPDATE training_sessions
		SET ai_analysis = $2, score = $3, feedback = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, aiAnalysis, score, feedback)
	return err
}

func (r *PgTrainingSessionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM training_sessions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgTrainingSessionRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM training_sessions`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
