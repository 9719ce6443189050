package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"moonai-trainer/internal/domain"
	"moonai-trainer/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyCompleted: la transición active→completed es única e
	// irreversible; un segundo complete se rechaza, no se sobrescribe.
	ErrSessionAlreadyCompleted = errors.New("session already completed")
)

const (
	// analysisFailureMarker antecede el error subyacente en ai_analysis cuando
	// el scoring falla; la sesión queda completada igual.
	analysisFailureMarker = "ANALYSIS_FAILED: "
	// analysisUnavailableFeedback es el feedback visible para el trainee en un
	// cierre degradado.
	analysisUnavailableFeedback = "Analysis service unavailable. Please try again later."
)

// CreateSessionInput es la configuración que aporta el trainer al iniciar.
type CreateSessionInput struct {
	UserID            string
	ManagerName       string
	ClientDescription string
	DifficultyLevel   string
	ClientType        string
	FirstMessage      string
}

// CreatedSession agrupa la sesión persistida más los payloads crudos que el
// front-end necesita para abrir la conexión de voz (el backend nunca la abre).
type CreatedSession struct {
	Session                    domain.TrainingSession `json:"session"`
	SignedWSURL                string                 `json:"signed_ws_url"`
	ConversationID             string                 `json:"conversation_id"`
	SessionSystemPrompt        string                 `json:"session_system_prompt"`
	ConversationConfigOverride map[string]any         `json:"conversation_config_override"`
	DynamicVariables           map[string]any         `json:"dynamic_variables"`
}

// ListSessionsInput parametriza listados y conteos.
type ListSessionsInput struct {
	ManagerName string
	Status      string
	SortBy      string
	SortDir     string
	Offset      int
	Limit       int
}

// SessionService es el dueño del ciclo de vida de la sesión:
// active --(complete)--> completed, sin otros estados ni vuelta atrás.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.TrainingSessionRepository
	gateway  *ConversationGateway
	analysis *AnalysisService
	prompts  *PromptService
	voiceID  string
}

func NewSessionService(
	logger *zap.Logger,
	sessions repository.TrainingSessionRepository,
	gateway *ConversationGateway,
	analysis *AnalysisService,
	prompts *PromptService,
	voiceID string,
) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		gateway:  gateway,
		analysis: analysis,
		prompts:  prompts,
		voiceID:  voiceID,
	}
}

// Create renderiza el prompt de la sesión, arma overrides y variables, abre la
// conversación remota y recién entonces persiste la fila en estado active.
// Cualquier falla del gateway aborta sin dejar fila a medias.
func (s *SessionService) Create(ctx context.Context, input CreateSessionInput) (CreatedSession, error) {
	sessionPrompt := s.prompts.BuildSessionPrompt(input.ClientDescription, input.DifficultyLevel)

	override := BuildConversationOverride(sessionPrompt, input.FirstMessage, s.voiceID)
	variables := BuildDynamicVariables(input.ClientDescription, input.DifficultyLevel, input.ClientType)

	remote, err := s.gateway.CreateRemoteSession(ctx, override, variables)
	if err != nil {
		return CreatedSession{}, fmt.Errorf("create remote session: %w", err)
	}

	session := domain.TrainingSession{
		UserID:              input.UserID,
		ManagerName:         strings.TrimSpace(input.ManagerName),
		ClientDescription:   optionalText(input.ClientDescription),
		DifficultyLevel:     optionalText(input.DifficultyLevel),
		ClientType:          optionalText(input.ClientType),
		FirstMessage:        optionalText(input.FirstMessage),
		SessionSystemPrompt: &sessionPrompt,
		SignedWSURL:         &remote.SignedURL,
		ConversationID:      &remote.ConversationID,
		SessionStart:        time.Now().UTC(),
		Status:              domain.SessionStatusActive,
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return CreatedSession{}, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("session created",
		zap.Int64("session_id", created.ID),
		zap.String("manager_name", created.ManagerName),
		zap.String("conversation_id", remote.ConversationID),
	)

	return CreatedSession{
		Session:                    created,
		SignedWSURL:                remote.SignedURL,
		ConversationID:             remote.ConversationID,
		SessionSystemPrompt:        sessionPrompt,
		ConversationConfigOverride: override,
		DynamicVariables:           variables,
	}, nil
}

// Complete cierra la sesión y la evalúa. La transcripción y el cierre se
// graban incondicionalmente primero: la llamada del trainee ocurrió y no se
// pierde aunque el scoring falle después. Una falla de análisis (transporte o
// validación) produce un registro degradado, nunca una falla de la operación.
func (s *SessionService) Complete(ctx context.Context, id int64, conversationLog string) (domain.TrainingSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return domain.TrainingSession{}, err
	}

	transitioned, err := s.sessions.Complete(ctx, id, conversationLog, time.Now().UTC())
	if err != nil {
		return domain.TrainingSession{}, fmt.Errorf("complete session: %w", err)
	}
	if !transitioned {
		return domain.TrainingSession{}, ErrSessionAlreadyCompleted
	}

	sessionPrompt := ""
	if session.SessionSystemPrompt != nil {
		sessionPrompt = *session.SessionSystemPrompt
	}

	analysis, raw, analysisErr := s.analysis.Analyse(ctx, conversationLog, sessionPrompt)
	if analysisErr != nil {
		var ae *AnalysisError
		if errors.As(analysisErr, &ae) && ae.Kind == AnalysisErrValidation {
			s.logger.Error("analysis schema validation failed",
				zap.Int64("session_id", id),
				zap.Error(analysisErr),
			)
		} else {
			s.logger.Error("analysis service unreachable",
				zap.Int64("session_id", id),
				zap.Error(analysisErr),
			)
		}

		marker := analysisFailureMarker + analysisErr.Error()
		if err := s.sessions.SetAnalysis(ctx, id, marker, nil, analysisUnavailableFeedback); err != nil {
			return domain.TrainingSession{}, fmt.Errorf("persist degraded analysis: %w", err)
		}
		return s.Get(ctx, id)
	}

	score := analysis.Score
	if err := s.sessions.SetAnalysis(ctx, id, raw, &score, analysis.SpecificFeedback); err != nil {
		return domain.TrainingSession{}, fmt.Errorf("persist analysis: %w", err)
	}

	s.logger.Info("session completed",
		zap.Int64("session_id", id),
		zap.Float64("score", score),
	)

	return s.Get(ctx, id)
}

// Get busca una sesión por id.
func (s *SessionService) Get(ctx context.Context, id int64) (domain.TrainingSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TrainingSession{}, ErrSessionNotFound
		}
		return domain.TrainingSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// List devuelve sesiones filtradas y ordenadas. El campo de orden se normaliza
// contra la whitelist del repositorio; lo desconocido cae al default.
func (s *SessionService) List(ctx context.Context, input ListSessionsInput) ([]domain.TrainingSession, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	return s.sessions.List(ctx,
		repository.SessionFilter{ManagerName: input.ManagerName, Status: input.Status},
		repository.NormalizeSortField(input.SortBy),
		repository.NormalizeSortDir(input.SortDir),
		offset,
		limit,
	)
}

// Count cuenta sesiones bajo los mismos filtros que List.
func (s *SessionService) Count(ctx context.Context, input ListSessionsInput) (int64, error) {
	return s.sessions.Count(ctx, repository.SessionFilter{
		ManagerName: input.ManagerName,
		Status:      input.Status,
	})
}

// Update aplica una actualización parcial de campos mutables.
func (s *SessionService) Update(ctx context.Context, id int64, input repository.UpdateSessionInput) (domain.TrainingSession, error) {
	session, err := s.sessions.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TrainingSession{}, ErrSessionNotFound
		}
		return domain.TrainingSession{}, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Delete borra una sesión; operación administrativa sobre el store externo.
func (s *SessionService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteAll borra todas las sesiones y devuelve cuántas había.
func (s *SessionService) DeleteAll(ctx context.Context) (int64, error) {
	return s.sessions.DeleteAll(ctx)
}

func optionalText(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
