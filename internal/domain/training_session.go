package domain

import "time"

// Estados posibles de una sesión de entrenamiento.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// TrainingSession es el agregado central: una llamada simulada de ventas,
// desde su creación hasta su evaluación.
//
// La configuración (manager, descripción del cliente, dificultad, tipo de
// cliente, primer mensaje y prompt renderizado) es inmutable después de crear
// la sesión. Los campos de resultado se escriben una sola vez al completarla.
type TrainingSession struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`

	ManagerName         string  `json:"manager_name"`
	ClientDescription   *string `json:"client_description,omitempty"`
	DifficultyLevel     *string `json:"difficulty_level,omitempty"`
	ClientType          *string `json:"client_type,omitempty"`
	FirstMessage        *string `json:"first_message,omitempty"`
	SessionSystemPrompt *string `json:"session_system_prompt,omitempty"`

	SignedWSURL    *string `json:"signed_ws_url,omitempty"`
	ConversationID *string `json:"conversation_id,omitempty"`

	SessionStart    time.Time  `json:"session_start"`
	SessionEnd      *time.Time `json:"session_end,omitempty"`
	ConversationLog *string    `json:"conversation_log,omitempty"`
	AIAnalysis      *string    `json:"ai_analysis,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	Feedback        *string    `json:"feedback,omitempty"`
	Status          string     `json:"status"`
}

// IsCompleted indica si la sesión ya pasó por la transición de cierre.
func (s TrainingSession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
