package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/topology"
)

func TestObserveGeneration(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(&topology.Stats{
		RegularCount:  100,
		SuperCount:    13,
		BackboneEdges: 156,
		SpokeEdges:    100,
		PeerEdges:     470,
		PeerShortfall: 30,
		SelfDraws:     6,
		Duration:      2 * time.Millisecond,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.nodes.WithLabelValues("super")))
	assert.Equal(t, 156.0, testutil.ToFloat64(m.edges.WithLabelValues("backbone")))
	assert.Equal(t, 470.0, testutil.ToFloat64(m.edges.WithLabelValues("peer")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.peerShortfall))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.peerSelfDraws))
}

func TestObservePath(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObservePath(PathBackbone, ResultComplete, 3)
	m.ObservePath(PathBackbone, ResultComplete, 2)
	m.ObservePath(PathBackbone, ResultIncomplete, 3)
	m.ObservePath(PathShortest, ResultEmpty, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pathRequests.WithLabelValues(PathBackbone, ResultComplete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pathRequests.WithLabelValues(PathBackbone, ResultIncomplete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pathRequests.WithLabelValues(PathShortest, ResultEmpty)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pathHops))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(&topology.Stats{RegularCount: 8, SuperCount: 2})
	path := filepath.Join(t.TempDir(), "superpeer.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "superpeer_generations_total 1")
	assert.Contains(t, string(data), `superpeer_nodes{kind="regular"} 8`)
}
