package service

import "strings"

// BuildConversationOverride arma el conversation_config_override que se envía
// al agente de voz. Siempre lleva el prompt renderizado de la sesión; el primer
// mensaje solo si el trainer lo definió y la voz solo si está configurada a
// nivel de proceso. Transformación pura, sin I/O.
func BuildConversationOverride(systemPrompt, firstMessage, voiceID string) map[string]any {
	agent := map[string]any{
		"prompt": map[string]any{"prompt": systemPrompt},
	}
	if strings.TrimSpace(firstMessage) != "" {
		agent["first_message"] = strings.TrimSpace(firstMessage)
	}

	override := map[string]any{"agent": agent}
	if strings.TrimSpace(voiceID) != "" {
		override["tts"] = map[string]any{"voice_id": strings.TrimSpace(voiceID)}
	}
	return override
}

// BuildDynamicVariables arma las variables que el agente sustituye en su
// plantilla. Cada campo del trainer entra solo si no está en blanco;
// client_behavior_description está siempre presente, resuelta contra la tabla
// de perfiles con fallback al perfil neutro.
func BuildDynamicVariables(clientDescription, difficultyLevel, clientType string) map[string]any {
	variables := make(map[string]any, 4)

	if v := strings.TrimSpace(clientDescription); v != "" {
		variables["product_description"] = v
	}
	if v := strings.TrimSpace(difficultyLevel); v != "" {
		variables["difficulty_level"] = v
	}
	if v := strings.TrimSpace(clientType); v != "" {
		variables["client_type"] = v
	}

	behavior, ok := ResolveBehaviorDescription(clientType)
	if !ok {
		behavior = DefaultBehaviorDescription()
	}
	variables["client_behavior_description"] = behavior

	return variables
}
