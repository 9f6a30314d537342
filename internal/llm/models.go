package llm

// ModelID identifies an LLM backend abstractly. Objectives store these
// identifiers; the gateway maps them to concrete backend model names.
type ModelID string

const (
	GPT4O          ModelID = "GPT_4O"
	GPT4OMini      ModelID = "GPT_4O_MINI"
	Claude35Sonnet ModelID = "CLAUDE_3_5_SONNET"
	GeminiPro      ModelID = "GEMINI_PRO"
)

const defaultBackendModel = "gpt-4o"

// backendModels maps abstract model ids to concrete backend model names.
// Non-OpenAI models currently route to gpt-4o until their providers are
// wired into the gateway.
var backendModels = map[ModelID]string{
	GPT4O:          "gpt-4o",
	GPT4OMini:      "gpt-4o-mini",
	Claude35Sonnet: "gpt-4o",
	GeminiPro:      "gpt-4o",
}

// KnownModels returns the closed set of configurable model ids, in a
// fixed order suitable for validation messages and UI listings.
func KnownModels() []ModelID {
	return []ModelID{GPT4O, GPT4OMini, Claude35Sonnet, GeminiPro}
}

// IsKnownModel reports whether id belongs to the configurable set.
func IsKnownModel(id ModelID) bool {
	_, ok := backendModels[id]
	return ok
}

// BackendModel resolves an abstract id to its backend model name.
// Unrecognized ids fall back to the default model rather than failing.
func BackendModel(id ModelID) string {
	if name, ok := backendModels[id]; ok {
		return name
	}
	return defaultBackendModel
}
