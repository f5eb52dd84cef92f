package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"domainacq/internal/store"
)

// PrefixPicker owns the "last used email prefix" cell. Every approval in the
// process goes through one picker so that two consecutive approvals never get
// the same alias.
type PrefixPicker struct {
	mu         sync.Mutex
	vocabulary []string
	state      store.PrefixState
	intn       func(n int) int
}

func NewPrefixPicker(vocabulary []string, state store.PrefixState) (*PrefixPicker, error) {
	if len(vocabulary) == 0 {
		return nil, errors.New("email prefix vocabulary is empty")
	}
	if state == nil {
		state = &store.MemoryPrefixState{}
	}
	return &PrefixPicker{
		vocabulary: append([]string(nil), vocabulary...),
		state:      state,
		intn:       rand.Intn,
	}, nil
}

// Next picks uniformly among the vocabulary minus the previous pick and
// stores the choice before returning it.
func (p *PrefixPicker) Next(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, err := p.state.LoadLastPrefix(ctx)
	if err != nil {
		return "", fmt.Errorf("load last email prefix: %w", err)
	}
	candidates := make([]string, 0, len(p.vocabulary))
	for _, v := range p.vocabulary {
		if v != last {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		// single-word vocabulary
		candidates = p.vocabulary
	}
	choice := candidates[p.intn(len(candidates))]
	if err := p.state.SaveLastPrefix(ctx, choice); err != nil {
		return "", fmt.Errorf("save last email prefix: %w", err)
	}
	return choice, nil
}

func (p *PrefixPicker) Vocabulary() []string {
	return append([]string(nil), p.vocabulary...)
}
