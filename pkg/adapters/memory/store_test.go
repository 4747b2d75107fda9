package memory_test

import (
	"testing"

	"github.com/aretw0/telelab/pkg/adapters/memory"
	"github.com/aretw0/telelab/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.SessionStoreContractTest(t, memory.NewStore())
}
