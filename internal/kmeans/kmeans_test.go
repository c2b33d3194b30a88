package kmeans

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBlobs generates perBlob points around each center, offset by at
// most maxOffset per coordinate, and returns the points together with
// the summed squared offset from the generating centers.
func makeBlobs(seed int64, centers [][]float32, perBlob int, maxOffset float32) ([][]float32, float64) {
	rng := rand.New(rand.NewSource(seed))

	var points [][]float32
	var offsetSq float64

	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			row := make([]float32, len(c))
			for d := range row {
				off := (rng.Float32()*2 - 1) * maxOffset
				row[d] = c[d] + off
				offsetSq += float64(off) * float64(off)
			}
			points = append(points, row)
		}
	}

	return points, offsetSq
}

func sortedByFirst(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestTrainerSeedRandom(t *testing.T) {
	points := [][]float32{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 3}, rand.New(rand.NewSource(7)))
	require.NoError(t, tr.Seed(context.Background(), m, InitRandom))
	assert.True(t, tr.Seeded())
	assert.Equal(t, 2, tr.Dim())

	centers := tr.Centers()
	require.Len(t, centers, 3)

	// Every seeded center must be a distinct input row.
	seen := make(map[float32]bool)
	for _, c := range centers {
		assert.Equal(t, c[0], c[1])
		assert.False(t, seen[c[0]], "duplicate seeded center")
		seen[c[0]] = true
	}
}

func TestTrainerSeedRandom_TooFewPoints(t *testing.T) {
	m := NewMatrix([][]float32{{0, 0}, {1, 1}}, false)
	tr := NewTrainer(Config{NumClusters: 3}, rand.New(rand.NewSource(1)))

	err := tr.Seed(context.Background(), m, InitRandom)
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.False(t, tr.Seeded())
}

func TestTrainerSeedPlusPlus(t *testing.T) {
	points, _ := makeBlobs(11, [][]float32{{0, 0}, {100, 100}}, 50, 1)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2, Retries: 2}, rand.New(rand.NewSource(42)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))

	// D^2 sampling lands one center in each blob.
	centers := sortedByFirst(tr.Centers())
	assert.InDelta(t, 0, centers[0][0], 1.5)
	assert.InDelta(t, 0, centers[0][1], 1.5)
	assert.InDelta(t, 100, centers[1][0], 1.5)
	assert.InDelta(t, 100, centers[1][1], 1.5)
}

func TestTrainerSeedPlusPlus_SamplingFailure(t *testing.T) {
	m := NewMatrix([][]float32{{0, 0}}, false)
	tr := NewTrainer(Config{NumClusters: 2}, rand.New(rand.NewSource(1)))

	err := tr.Seed(context.Background(), m, InitPlusPlus)
	assert.ErrorIs(t, err, ErrSamplingFailed)
}

func TestTrainerSeedPlusPlus_IdenticalPoints(t *testing.T) {
	points := [][]float32{{3, 3}, {3, 3}, {3, 3}, {3, 3}}
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2}, rand.New(rand.NewSource(1)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))

	// Zero residual mass falls back to uniform draws.
	for _, c := range tr.Centers() {
		assert.Equal(t, []float32{3, 3}, c)
	}
}

func TestTrainerRun(t *testing.T) {
	trueCenters := [][]float32{{0, 0}, {100, 100}, {-80, 60}}
	points, offsetSq := makeBlobs(23, trueCenters, 100, 1)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 3, Retries: 2}, rand.New(rand.NewSource(5)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))

	obj, err := tr.Run(context.Background(), m, 20)
	require.NoError(t, err)

	// Cluster means minimize within-cluster SSE, so the converged
	// objective cannot exceed the generating offset energy.
	assert.Greater(t, obj, 0.0)
	assert.LessOrEqual(t, obj, offsetSq)

	centers := sortedByFirst(tr.Centers())
	want := sortedByFirst(trueCenters)
	for i := range want {
		assert.InDelta(t, want[i][0], centers[i][0], 0.5)
		assert.InDelta(t, want[i][1], centers[i][1], 0.5)
	}
}

func TestTrainerRun_ObjectiveMonotone(t *testing.T) {
	points, _ := makeBlobs(31, [][]float32{{0, 0}, {20, 0}, {0, 20}, {20, 20}}, 50, 5)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 4}, rand.New(rand.NewSource(9)))
	require.NoError(t, tr.Seed(context.Background(), m, InitRandom))

	obj1, err := tr.Run(context.Background(), m, 1)
	require.NoError(t, err)

	obj2, err := tr.Run(context.Background(), m, 10)
	require.NoError(t, err)

	assert.LessOrEqual(t, obj2, obj1)
}

func TestTrainerRun_Cancellation(t *testing.T) {
	points, _ := makeBlobs(3, [][]float32{{0, 0}, {10, 10}}, 100, 1)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2}, rand.New(rand.NewSource(1)))
	require.NoError(t, tr.Seed(context.Background(), m, InitRandom))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Run(ctx, m, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainerRun_ReseedsEmptyClusters(t *testing.T) {
	points := [][]float32{{0, 0}, {0, 0}, {10, 10}, {10, 10}}
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2}, rand.New(rand.NewSource(1)))

	// Both centers start on the same spot, so one cluster begins empty.
	tr.Restore(2, []float64{0, 0, 0, 0}, []int64{0, 0})

	obj, err := tr.Run(context.Background(), m, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0, obj, 1e-9)

	centers := sortedByFirst(tr.Centers())
	assert.InDelta(t, 0, centers[0][0], 1e-6)
	assert.InDelta(t, 10, centers[1][0], 1e-6)
}

func TestTrainerRun_Deterministic(t *testing.T) {
	points, _ := makeBlobs(17, [][]float32{{0, 0}, {50, 50}}, 100, 10)
	m := NewMatrix(points, false)

	train := func() [][]float32 {
		tr := NewTrainer(Config{NumClusters: 2, Retries: 2}, rand.New(rand.NewSource(99)))
		require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))
		_, err := tr.Run(context.Background(), m, 5)
		require.NoError(t, err)
		return tr.Centers()
	}

	assert.Equal(t, train(), train())
}

func TestTrainerRun_Tolerance(t *testing.T) {
	points, _ := makeBlobs(13, [][]float32{{0, 0}, {100, 100}}, 100, 1)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2, Retries: 2, Tolerance: 1e-6}, rand.New(rand.NewSource(3)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))

	// Early stopping must not change the converged solution.
	obj, err := tr.Run(context.Background(), m, 1000)
	require.NoError(t, err)
	assert.Greater(t, obj, 0.0)

	centers := sortedByFirst(tr.Centers())
	assert.InDelta(t, 0, centers[0][0], 0.5)
	assert.InDelta(t, 100, centers[1][0], 0.5)
}

func TestTrainerCosine(t *testing.T) {
	// Two directions; magnitudes must not matter.
	points := [][]float32{{1, 0}, {4, 0}, {0, 2}, {0, 9}}
	m := NewMatrix(points, true)

	tr := NewTrainer(Config{NumClusters: 2, Cosine: true, Retries: 2}, rand.New(rand.NewSource(21)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))

	obj, err := tr.Run(context.Background(), m, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0, obj, 1e-6)

	centers := sortedByFirst(tr.Centers())
	assert.InDelta(t, 0, centers[0][0], 1e-6)
	assert.InDelta(t, 1, centers[0][1], 1e-6)
	assert.InDelta(t, 1, centers[1][0], 1e-6)
	assert.InDelta(t, 0, centers[1][1], 1e-6)
}

func TestTrainerStateRestore(t *testing.T) {
	points, _ := makeBlobs(7, [][]float32{{0, 0}, {30, 30}}, 50, 1)
	m := NewMatrix(points, false)

	tr := NewTrainer(Config{NumClusters: 2, Retries: 1}, rand.New(rand.NewSource(2)))
	require.NoError(t, tr.Seed(context.Background(), m, InitPlusPlus))
	_, err := tr.Run(context.Background(), m, 5)
	require.NoError(t, err)

	centers, counts := tr.State()

	restored := NewTrainer(Config{NumClusters: 2, Retries: 1}, rand.New(rand.NewSource(2)))
	restored.Restore(2, centers, counts)

	assert.True(t, restored.Seeded())
	assert.Equal(t, tr.Centers(), restored.Centers())
}
