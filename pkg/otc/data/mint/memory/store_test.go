package memory

import (
	"testing"

	"github.com/code-payments/otc-server/pkg/otc/data/mint/tests"
)

func TestMintMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
