package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// SaveRule appends a consolidation rule.
func (s *Store) SaveRule(ctx context.Context, rule domain.ConsolidationRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn, "rule")
		if err != nil {
			return err
		}
		return setJSON(txn, seqKey(rulePrefix, seq), rule)
	})
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

// ListRules returns stored rules in insertion order. Rules are returned
// uncompiled.
func (s *Store) ListRules(ctx context.Context) ([]domain.ConsolidationRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rules []domain.ConsolidationRule
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rules, err = scanPrefix[domain.ConsolidationRule](txn, rulePrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}
