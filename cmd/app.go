package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/taskloop/taskloop/internal/actions"
	"github.com/taskloop/taskloop/internal/backend"
	"github.com/taskloop/taskloop/internal/config"
	"github.com/taskloop/taskloop/internal/dialogue"
	"github.com/taskloop/taskloop/internal/intent"
	"github.com/taskloop/taskloop/internal/llm"
	"github.com/taskloop/taskloop/internal/oracle"
	"github.com/taskloop/taskloop/internal/planner"
	"github.com/taskloop/taskloop/internal/session"
	"github.com/taskloop/taskloop/internal/slots"
)

// buildOrchestrator wires the full dialogue stack from configuration. The
// returned cleanup closes the backend store and any live LLM connection.
func buildOrchestrator() (*dialogue.Orchestrator, backend.Store, func(), error) {
	settings := config.LoadSettings()

	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	// Without credentials the oracles stay nil and every flow degrades to
	// keyword matching and clarification prompts.
	var chat *oracle.ChatOracle
	if llmCfg.APIKey != "" || llmCfg.Provider == llm.ProviderOllama {
		chat = oracle.NewChatOracle(llmCfg, settings.OracleTimeout)
	} else {
		slog.Warn("no LLM credentials found, running with keyword fallbacks only", "provider", llmCfg.Provider)
	}

	store, err := openBackend(settings)
	if err != nil {
		return nil, nil, nil, err
	}

	slotEngine, resolver, generator, researcher := assembleOracles(chat, settings)

	dispatcher := actions.NewDispatcher(slog.Default())
	var decomposer oracle.Extractor
	if chat != nil {
		decomposer = chat
	}
	actions.NewHandlers(store, researcher, decomposer, slog.Default()).RegisterAll(dispatcher)

	sessions := session.NewLRUStore(session.Options{
		Capacity: settings.SessionCapacity,
		TTL:      settings.SessionTTL,
		Fs:       afero.NewOsFs(),
		Dir:      config.GetSessionDir(),
	})

	orch, err := dialogue.New(dialogue.Deps{
		Sessions:   sessions,
		Resolver:   resolver,
		Slots:      slotEngine,
		Planner:    generator,
		Dispatcher: dispatcher,
		Researcher: researcher,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		if chat != nil {
			_ = chat.Close()
		}
		_ = store.Close()
	}
	return orch, store, cleanup, nil
}

func openBackend(settings config.Settings) (backend.Store, error) {
	switch settings.BackendDriver {
	case "memory":
		return backend.NewMemoryStore(), nil
	case "sqlite":
		store, err := backend.NewSQLiteStore(config.GetDataBasePath())
		if err != nil {
			return nil, fmt.Errorf("open tracker store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend driver %q (supported: sqlite, memory)", settings.BackendDriver)
	}
}

func assembleOracles(chat *oracle.ChatOracle, settings config.Settings) (*slots.Engine, *intent.Resolver, *planner.Generator, oracle.Researcher) {
	var (
		classifier oracle.Classifier
		extractor  oracle.Extractor
		plannerO   oracle.Planner
		researcher oracle.Researcher
	)
	if chat != nil {
		classifier, extractor, plannerO = chat, chat, chat
		if settings.ResearchEnabled {
			researcher = chat
		}
	}

	slotEngine := slots.NewEngine(extractor)
	if err := slotEngine.LoadTemplates(settings.ClarificationsFile); err != nil {
		slog.Warn("clarification templates not loaded", "error", err)
	}
	return slotEngine, intent.NewResolver(classifier), planner.NewGenerator(plannerO), researcher
}
