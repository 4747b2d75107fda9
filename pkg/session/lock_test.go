package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/telelab/pkg/adapters/memory"
	"github.com/aretw0/telelab/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key-%d", i)
		_ = mgr.WithLock(ctx, key, func(ctx context.Context) error {
			return mgr.Save(ctx, domain.Credentials{Token: key})
		})
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory", lockCount)
	}
}
