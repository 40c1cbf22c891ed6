package naivemonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Init is sync.Once-guarded process-wide state, so its whole lifecycle is
// exercised in one test.
func TestGlobalLifecycle(t *testing.T) {
	require.Error(t, RegisterCollector(&stubCollector{name: "early"}),
		"registration before Init must fail")
	_, err := WatchSocket("factory_test_early")
	require.Error(t, err)

	cfg := testConfig()
	cfg.Logger = zap.NewNop()
	require.NoError(t, Init(cfg))
	defer Shutdown()

	sock, err := WatchSocket("factory_test_sock")
	require.NoError(t, err)
	assert.Same(t, GetSocketMonitor("factory_test_sock"), sock)

	pool, err := WatchThreadPool("factory_test_pool")
	require.NoError(t, err)
	assert.Same(t, GetThreadPoolMonitor("factory_test_pool"), pool)

	comp, err := WatchCompression("factory_test_comp")
	require.NoError(t, err)
	assert.Same(t, GetCompressionMonitor("factory_test_comp"), comp)

	// A second Init is a no-op, not an error.
	assert.NoError(t, Init(cfg))
}
