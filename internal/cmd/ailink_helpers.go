package cmd

import (
	"fmt"

	"github.com/astrasemi/qualitylens/internal/ailink"
	"github.com/astrasemi/qualitylens/internal/ailink/prompt"
	"github.com/astrasemi/qualitylens/internal/config"
)

func buildPromptRegistry(cfg *config.Config) (prompt.Registry, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.AILink.PromptsDir
	}
	return prompt.RegistryWithOverrides(dir)
}

// buildInsightService assembles the insight backend from cfg. A provider
// that is not configured is not an error: the service answers with mock
// insights until one is.
func buildInsightService(cfg *config.Config) (*ailink.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	registry, err := buildPromptRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("load prompt registry: %w", err)
	}
	return &ailink.Service{
		Providers: ailink.NewRegistry(cfg.AILink),
		Registry:  registry,
	}, nil
}
