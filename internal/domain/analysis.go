package domain

// ConversationAnalysis es el resultado de evaluar una transcripción.
// Es un value object efímero: nunca se persiste como tal, solo el JSON crudo
// que lo originó (campo ai_analysis de la sesión).
type ConversationAnalysis struct {
	Score               float64  `json:"score"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SpecificFeedback    string   `json:"specific_feedback"`
	KeyMoments          []string `json:"key_moments"`
}
