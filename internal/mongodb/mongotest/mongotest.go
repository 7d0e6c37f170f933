package mongotest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/synco-server/internal/config"
	"github.com/jrsteele09/synco-server/internal/mongodb"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TestURLEnv names the variable that enables repomongo integration tests.
const TestURLEnv = "MONGODB_TEST_URL"

// NewTestDatabase connects to the server named by MONGODB_TEST_URL and returns
// a throwaway database that is dropped when the test ends. The test is
// skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	url := os.Getenv(TestURLEnv)
	if url == "" {
		t.Skipf("%s not set", TestURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, config.Database{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		ServerTimeout:  5 * time.Second,
		MaxPoolSize:    4,
		RetryAttempts:  1,
	})
	require.NoError(t, err)

	db := client.Database("synco_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
