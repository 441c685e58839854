package a4f

// ModelInfo describes one model from the provider catalog
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Premium     bool   `json:"premium"`
}

// Catalog is the static list of models exposed through the API.
// The provider has no discovery endpoint for plan-scoped models, so the
// catalog is maintained here.
var Catalog = []ModelInfo{
	{ID: "provider-2/flux.1-schnell", Name: "FLUX.1 Schnell", Type: "image", Description: "Fast image generation"},
	{ID: "provider-2/flux.1-dev", Name: "FLUX.1 Dev", Type: "image", Description: "Higher quality image generation", Premium: true},
	{ID: "provider-3/dall-e-3", Name: "DALL-E 3", Type: "image", Premium: true},
	{ID: "provider-1/sora", Name: "Sora", Type: "video", Premium: true},
	{ID: "provider-2/wan-2.1", Name: "Wan 2.1", Type: "video"},
	{ID: "provider-3/gpt-4o", Name: "GPT-4o", Type: "chat", Premium: true},
	{ID: "provider-3/gpt-4o-mini", Name: "GPT-4o Mini", Type: "chat"},
	{ID: "provider-1/deepseek-v3", Name: "DeepSeek V3", Type: "chat"},
	{ID: "provider-3/tts-1", Name: "TTS-1", Type: "audio"},
	{ID: "provider-3/tts-1-hd", Name: "TTS-1 HD", Type: "audio", Premium: true},
	{ID: "provider-3/whisper-1", Name: "Whisper", Type: "transcription"},
	{ID: "provider-3/gpt-image-1", Name: "GPT Image 1", Type: "image_edit", Premium: true},
	{ID: "provider-3/text-embedding-3-small", Name: "Text Embedding 3 Small", Type: "embeddings"},
}

// ModelsByType filters the catalog by generation type.
// An empty type returns the full catalog.
func ModelsByType(genType string) []ModelInfo {
	if genType == "" {
		return Catalog
	}

	var out []ModelInfo
	for _, m := range Catalog {
		if m.Type == genType {
			out = append(out, m)
		}
	}
	return out
}
