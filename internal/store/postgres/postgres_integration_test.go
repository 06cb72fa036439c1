package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	databaseURL := os.Getenv("VENDITE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set VENDITE_TEST_DATABASE_URL to run postgres integration test")
	}

	s, err := New(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	storetest.Run(t, s)
}

func TestLikePrefixEscapesWildcards(t *testing.T) {
	assert.Equal(t, `sales/%`, likePrefix("sales/"))
	assert.Equal(t, `a\_b\%c\\%`, likePrefix(`a_b%c\`))
}
