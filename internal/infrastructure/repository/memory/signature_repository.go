package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/signature"
)

type SignatureRepository struct {
	mu    sync.RWMutex
	items map[string]signature.Signature
}

func NewSignatureRepository() *SignatureRepository {
	return &SignatureRepository{items: make(map[string]signature.Signature)}
}

func (r *SignatureRepository) Get(_ context.Context, matchID, judgeID string) (signature.Signature, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[signatureKey(matchID, judgeID)]
	if !ok {
		return signature.Signature{}, false, nil
	}
	return cloneSignature(item), true, nil
}

func (r *SignatureRepository) ListByMatch(_ context.Context, matchID string) ([]signature.Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]signature.Signature, 0, len(r.items))
	for key, item := range r.items {
		if strings.HasPrefix(key, matchID+"::") {
			out = append(out, cloneSignature(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JudgeID < out[j].JudgeID })
	return out, nil
}

func (r *SignatureRepository) Put(_ context.Context, item signature.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := signatureKey(item.MatchID, item.JudgeID)
	if _, exists := r.items[key]; exists {
		return fmt.Errorf("%w: match=%s judge=%s", signature.ErrAlreadySigned, item.MatchID, item.JudgeID)
	}
	r.items[key] = cloneSignature(item)
	return nil
}

func signatureKey(matchID, judgeID string) string {
	return matchID + "::" + judgeID
}

func cloneSignature(item signature.Signature) signature.Signature {
	copied := item
	copied.Blob = append([]byte(nil), item.Blob...)
	return copied
}
