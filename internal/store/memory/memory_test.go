package memory

import (
	"testing"

	"vendite/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, New())
}
