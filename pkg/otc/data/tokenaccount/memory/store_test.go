package memory

import (
	"testing"

	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount/tests"
)

func TestTokenAccountMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
