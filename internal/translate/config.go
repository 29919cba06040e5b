package translate

import (
	"errors"
	"strings"

	"github.com/transdesk/backend/internal/config"
	"github.com/transdesk/backend/internal/db/models"
)

// DefaultPrompt is used when neither the project nor the global settings carry a template.
const DefaultPrompt = "You are a professional translator. Translate the following text to {targetLang}. Only return the translated text."

var ErrMissingAPIKey = errors.New("API key not configured")

// ProviderConfig is the effective provider setup for one request.
type ProviderConfig struct {
	Endpoint       string
	APIKey         string
	Model          string
	PromptTemplate string
}

// ResolveConfig merges project overrides over the global settings, falling
// back to the process defaults for the endpoint and model. project may be nil.
func ResolveConfig(project *models.Project, global models.GlobalSettings, defaults config.ProviderConfig) (ProviderConfig, error) {
	cfg := ProviderConfig{
		Endpoint:       firstNonEmpty(global.APIEndpoint, defaults.Endpoint),
		APIKey:         global.APIKey,
		Model:          defaults.Model,
		PromptTemplate: firstNonEmpty(global.Prompt, DefaultPrompt),
	}
	if project != nil {
		cfg.Endpoint = firstNonEmpty(project.APIEndpoint, cfg.Endpoint)
		cfg.APIKey = firstNonEmpty(project.APIKey, cfg.APIKey)
		cfg.PromptTemplate = firstNonEmpty(project.SystemPrompt, cfg.PromptTemplate)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ProviderConfig{}, ErrMissingAPIKey
	}
	return cfg, nil
}

// BuildPrompt fills {targetLang} and {sourceLang} ("auto" when unknown) into template.
func BuildPrompt(template, targetLang, sourceLang string) string {
	if sourceLang == "" {
		sourceLang = "auto"
	}
	r := strings.NewReplacer("{targetLang}", targetLang, "{sourceLang}", sourceLang)
	return r.Replace(template)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
