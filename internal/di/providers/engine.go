package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/normalize"
	"github.com/listenupapp/tagcurator/internal/similarity"
	"github.com/listenupapp/tagcurator/internal/validation"
)

// ProvideNormalizer provides the default tag normalizer.
func ProvideNormalizer(i do.Injector) (*normalize.RuleTable, error) {
	return normalize.Default(), nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAnalyzer provides the tag analyzer. The graph is empty until the
// consolidator syncs it with the corpus.
func ProvideAnalyzer(i do.Injector) (*analyzer.Analyzer, error) {
	n := do.MustInvoke[*normalize.RuleTable](i)
	log := do.MustInvoke[*logger.Logger](i)

	return analyzer.New(n, log.Component("analyzer")), nil
}

// ProvideSimilarity provides the similarity engine over the analyzer graph.
func ProvideSimilarity(i do.Injector) (*similarity.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	a := do.MustInvoke[*analyzer.Analyzer](i)
	log := do.MustInvoke[*logger.Logger](i)

	weights := similarity.Weights{
		Lexical:      cfg.Similarity.LexicalWeight,
		Cooccurrence: cfg.Similarity.CooccurrenceWeight,
		Structural:   cfg.Similarity.StructuralWeight,
	}
	return similarity.New(a, weights, log.Component("similarity")), nil
}

// ProvideConsolidator provides the consolidator, synced with the corpus and
// loaded with stored rules, file rules, and merge history.
func ProvideConsolidator(i do.Injector) (*consolidator.Consolidator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*TagIndexHandle](i)

	c := consolidator.New(
		do.MustInvoke[*corpus.Corpus](i),
		do.MustInvoke[*analyzer.Analyzer](i),
		do.MustInvoke[*similarity.Engine](i),
		ConsolidatorConfig(cfg),
		consolidator.WithRecorder(storeHandle.Store),
		consolidator.WithTagIndex(indexHandle.TagIndex),
		consolidator.WithValidator(do.MustInvoke[*validation.Validator](i)),
		consolidator.WithLogger(log.Component("consolidator")),
	)

	ctx := context.Background()

	rules, err := storeHandle.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.LoadRules(rules); err != nil {
		return nil, fmt.Errorf("stored rules: %w", err)
	}

	if cfg.Rules.File != "" {
		fileRules, err := config.LoadRules(cfg.Rules.File)
		if err != nil {
			return nil, err
		}
		if err := c.LoadRules(fileRules); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", cfg.Rules.File, err)
		}
	}

	history, err := storeHandle.ListHistory(ctx)
	if err != nil {
		return nil, err
	}
	c.LoadHistory(history)

	report := c.Sync()
	log.Debug("Consolidator ready",
		"tags", report.Tags,
		"albums", report.Albums,
		"skipped", report.Skipped,
		"rules", len(c.Rules()),
		"history", len(history),
	)

	return c, nil
}

// ConsolidatorConfig maps application config onto consolidator thresholds.
func ConsolidatorConfig(cfg *config.Config) consolidator.Config {
	return consolidator.Config{
		MergeThreshold:         cfg.Similarity.MergeThreshold,
		ExhaustiveScanLimit:    cfg.Similarity.ExhaustiveScanLimit,
		FrequencyMismatchRatio: cfg.Conflicts.FrequencyMismatchRatio,
		StrongRelationship:     cfg.Conflicts.StrongRelationship,
		SharedRelationship:     cfg.Conflicts.SharedRelationship,
		MinRelationshipWeight:  cfg.Conflicts.MinRelationshipWeight,
	}
}
