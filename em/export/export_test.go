package export

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-n2f/em/freq"
	"github.com/cwbudde/algo-n2f/em/geom"
	"github.com/cwbudde/algo-n2f/em/near2far"
	"github.com/cwbudde/algo-n2f/internal/testutil"
)

// fakeEvaluator returns fields that encode the point and frequency index.
type fakeEvaluator struct {
	freqs freq.Set
	err   error
}

func (f *fakeEvaluator) Frequencies() freq.Set { return f.freqs }

func (f *fakeEvaluator) FarfieldsIndex(_ context.Context, pts []geom.Vec, fi int) ([]near2far.Field, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([]near2far.Field, len(pts))
	for i, p := range pts {
		out[i] = fakeField(p, fi)
	}

	return out, nil
}

func fakeField(p geom.Vec, fi int) near2far.Field {
	var fl near2far.Field
	for c := range fl {
		fl[c] = complex(p.X+float64(c)+float64(fi), p.Y*p.Z-float64(c))
	}

	return fl
}

func newFake(t *testing.T, freqs ...float64) *fakeEvaluator {
	t.Helper()

	s, err := freq.NewSet(freqs...)
	require.NoError(t, err)

	return &fakeEvaluator{freqs: s}
}

func testGrid() Grid {
	return Grid{Center: geom.Vec{X: 10, Y: -2}, Size: geom.Vec{X: 2, Y: 1}, Resolution: 2}
}

func TestGridShapeAndCoordinates(t *testing.T) {
	g := testGrid()

	assert.Equal(t, [3]int{5, 3, 1}, g.Shape())
	assert.Equal(t, 15, g.Len())
	assert.Equal(t, []float64{9, 9.5, 10, 10.5, 11}, g.Axis(geom.X))
	assert.Equal(t, []float64{-2.5, -2, -1.5}, g.Axis(geom.Y))
	assert.Equal(t, []float64{0}, g.Axis(geom.Z))

	for _, a := range []geom.Axis{geom.X, geom.Y, geom.Z} {
		for i := range g.Count(a) {
			got, ok := g.Index(a, g.Coord(a, i))
			require.True(t, ok)
			require.Equal(t, i, got)
		}
	}

	_, ok := g.Index(geom.X, 20)
	assert.False(t, ok)

	pts := g.Points()
	require.Len(t, pts, g.Len())
	assert.Equal(t, g.Point(3, 2, 0), pts[g.Flat(3, 2, 0)])
}

func TestGridSpacingIsExact(t *testing.T) {
	// 0.3 is not a multiple of 1/10 in floating point.
	g := Grid{Size: geom.Vec{X: 0.3}, Resolution: 10}
	assert.Equal(t, 4, g.Count(geom.X))

	// Sizes between multiples round down.
	g = Grid{Size: geom.Vec{X: 0.35}, Resolution: 10}
	assert.Equal(t, 4, g.Count(geom.X))
	testutil.RequireNear(t, g.Coord(geom.X, 3)-g.Coord(geom.X, 2), 0.1, 1e-15)
}

func TestGridValidation(t *testing.T) {
	for _, res := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewGrid(geom.Volume{Size: geom.Vec{X: 1}}, res)
		assert.ErrorIs(t, err, ErrInvalidResolution, "resolution %v", res)
	}

	_, err := NewGrid(geom.Volume{Size: geom.Vec{X: -1}}, 1)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	g, err := NewGrid(geom.Volume{Center: geom.Vec{Z: 3}}, 4)
	require.NoError(t, err)
	assert.Equal(t, []geom.Vec{{Z: 3}}, g.Points())

	_, err = NewGrid(geom.Volume{Size: geom.Vec{X: 4095, Y: 4095}}, 1)
	require.NoError(t, err, "exactly MaxPoints points")

	for _, size := range []geom.Vec{{X: 4096, Y: 4095}, {X: 1e6, Y: 1e6, Z: 1e6}, {X: 1e300}} {
		_, err = NewGrid(geom.Volume{Size: size}, 1e10)
		assert.ErrorIs(t, err, ErrInvalidGrid, "size %v", size)
	}

	_, err = NewGrid(geom.Volume{Size: geom.Vec{X: 4096, Y: 4095}}, 1)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	path := filepath.Join(t.TempDir(), "huge.db")
	err = Export(context.Background(), nil, Grid{Size: geom.Vec{X: 1e9, Y: 1e9}, Resolution: 1}, path)
	require.ErrorIs(t, err, ErrInvalidGrid)
	assert.NoFileExists(t, path)
}

func TestExportSQLiteRoundTrip(t *testing.T) {
	ev := newFake(t, 0.4, 0.6)
	g := testGrid()
	path := filepath.Join(t.TempDir(), "far.db")

	require.NoError(t, Export(context.Background(), ev, g, path, WithRunID("run-1"), WithIntensity(true)))

	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []float64{0.4, 0.6}, got.Frequencies)
	assert.Equal(t, g.Shape(), got.Grid.Shape())

	for _, a := range []geom.Axis{geom.X, geom.Y, geom.Z} {
		testutil.RequireSliceNearlyEqual(t, got.Grid.Axis(a), g.Axis(a), 1e-12)
	}

	require.Len(t, got.Fields, 2)

	for fi := range got.Fields {
		for i, p := range g.Points() {
			require.Equal(t, fakeField(p, fi), got.Fields[fi][i], "f=%d point %d", fi, i)
		}

		testutil.RequireSliceNearlyEqual(t, got.Intensity[fi], Intensity(got.Fields[fi]), 1e-9)
	}

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportGeneratesRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "far.db")
	require.NoError(t, Export(context.Background(), newFake(t, 1), Grid{Resolution: 1}, path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, got.RunID, 36)
	assert.Nil(t, got.Intensity)
}

func TestExportCSV(t *testing.T) {
	ev := newFake(t, 0.5)
	g := testGrid()
	path := filepath.Join(t.TempDir(), "far.csv")

	require.NoError(t, Export(context.Background(), ev, g, path, WithFormat(FormatCSV)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+g.Len())

	header := records[0]
	assert.Equal(t, []string{"frequency", "i", "j", "k", "x", "y", "z", "ex.r", "ex.i"}, header[:9])
	assert.Equal(t, "hz.i", header[len(header)-1])

	// Row for (i, j, k) = (4, 1, 0).
	row := records[1+g.Flat(4, 1, 0)]
	assert.Equal(t, []string{"0.5", "4", "1", "0", "11", "-2", "0"}, row[:7])

	want := fakeField(g.Point(4, 1, 0), 0)
	hzIm, err := strconv.ParseFloat(row[len(row)-1], 64)
	require.NoError(t, err)
	assert.Equal(t, imag(want[geom.Hz]), hzIm)
}

func TestExportFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "far.db")
	boom := errors.New("boom")

	ev := newFake(t, 1)
	ev.err = boom

	err := Export(context.Background(), ev, testGrid(), path)
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// A missing directory fails loudly.
	err = Export(context.Background(), newFake(t, 1), testGrid(), filepath.Join(dir, "missing", "far.db"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportFailurePreservesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "far.db")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	ev := newFake(t, 1)
	ev.err = errors.New("boom")

	require.Error(t, Export(context.Background(), ev, testGrid(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestExportInvalidGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "far.db")
	err := Export(context.Background(), newFake(t, 1), Grid{Resolution: 0}, path)
	require.ErrorIs(t, err, ErrInvalidResolution)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "nope.db"))
	require.ErrorIs(t, err, os.ErrNotExist)

	csvPath := filepath.Join(dir, "far.csv")
	require.NoError(t, Export(context.Background(), newFake(t, 1), testGrid(), csvPath, WithFormat(FormatCSV)))

	_, err = Read(csvPath)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatSQLite, f)

	_, err = ParseFormat("hdf5")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportRealEvaluator(t *testing.T) {
	const f = 0.5

	freqs, err := freq.NewSet(f)
	require.NoError(t, err)

	rec, err := near2far.NewRecorder(freqs, near2far.WithDimensions(2), near2far.WithResolution(10))
	require.NoError(t, err)

	box, err := geom.Box(geom.Vec{}, geom.Vec{X: 2, Y: 2}, 2)
	require.NoError(t, err)
	require.NoError(t, rec.AddSurfaces(box...))

	_, err = testutil.DriveHarmonic(f, 1, 20, 0.05, testutil.LineSourceTM(2*math.Pi*f), rec.Step)
	require.NoError(t, err)

	ev, err := rec.Freeze()
	require.NoError(t, err)

	g := Grid{Center: geom.Vec{X: 20}, Size: geom.Vec{X: 1, Y: 1}, Resolution: 2}
	path := filepath.Join(t.TempDir(), "far.db")
	require.NoError(t, Export(context.Background(), ev, g, path))

	got, err := Read(path)
	require.NoError(t, err)

	want, err := ev.Farfield(g.Point(1, 2, 0), f)
	require.NoError(t, err)
	assert.Equal(t, want, got.Fields[0][g.Flat(1, 2, 0)])
}
