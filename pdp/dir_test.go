package pdp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentrie-sh/aspen/evalctx"
)

func TestDirRetrievalPointTracksFilePresence(t *testing.T) {
	dir := t.TempDir()
	rp, err := NewDirRetrievalPoint(dir)
	require.NoError(t, err)
	defer rp.Close()

	rp.Register("p1", fakeDocument{name: "p1"})

	docs, total, errs := rp.MatchingDocuments(context.Background(), evalctx.Subscription{})
	require.Empty(t, docs)
	require.Equal(t, 0, total)
	require.Empty(t, errs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "p1.policy"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		docs, _, _ := rp.MatchingDocuments(context.Background(), evalctx.Subscription{})
		return len(docs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "p1.policy")))

	require.Eventually(t, func() bool {
		docs, _, _ := rp.MatchingDocuments(context.Background(), evalctx.Subscription{})
		return len(docs) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
