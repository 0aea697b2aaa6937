package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-fits-inspector/internal/coords"
	apperrors "go-fits-inspector/internal/errors"
	"go-fits-inspector/internal/export"
	"go-fits-inspector/internal/extractor"
	"go-fits-inspector/internal/fitsfile/fitstest"
	"go-fits-inspector/internal/footprint"
	"go-fits-inspector/internal/observer"
	"go-fits-inspector/internal/storage"
)

type echoResolver struct{}

func (echoResolver) Resolve(_ context.Context, name string) string { return strings.TrimSpace(name) }

func image(object string, ra float64) fitstest.Image {
	return fitstest.Image{
		Width:  8,
		Height: 8,
		Cards: []fitstest.Card{
			{Key: "OBJECT", Value: object},
			{Key: "CTYPE1", Value: "RA---TAN"},
			{Key: "CTYPE2", Value: "DEC--TAN"},
			{Key: "CRVAL1", Value: ra},
			{Key: "CRVAL2", Value: 10.0},
			{Key: "CRPIX1", Value: 4.5},
			{Key: "CRPIX2", Value: 4.5},
			{Key: "CDELT1", Value: -0.05},
			{Key: "CDELT2", Value: 0.05},
		},
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for i, name := range []string{"c.fits", "a.FITS", "b.fit", "e.fits", "d.fits"} {
		require.NoError(t, image(fmt.Sprintf("obj-%s", name), float64(10*(i+1))).WriteFile(filepath.Join(dir, name)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.fits"), []byte("not fits"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

func newRunner(t *testing.T, workers int) (*Runner, *observer.MetricsObserver, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	ex := extractor.New(echoResolver{}, coords.NewNormalizer(log), footprint.NewBuilder(6, log), log)
	pub := observer.NewEventPublisher(log)
	metrics := observer.NewMetricsObserver()
	pub.Subscribe(observer.NewLoggingObserver(log))
	pub.Subscribe(metrics)
	return NewRunner(ex, pub, workers, log), metrics, hook
}

func TestRunner_Run(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			src, err := storage.NewLocalStorage(fixtureDir(t))
			require.NoError(t, err)

			r, metrics, _ := newRunner(t, workers)
			res, err := r.Run(context.Background(), src)
			require.NoError(t, err)

			assert.NotEmpty(t, res.RunID)
			assert.Equal(t, 6, res.Listed)
			require.Len(t, res.Records, 5)
			var names []string
			for _, md := range res.Records {
				names = append(names, md.Filename)
				assert.Equal(t, md.MOC == nil, md.Polygon == nil)
			}
			assert.Equal(t, []string{"a.FITS", "b.fit", "c.fits", "d.fits", "e.fits"}, names)

			require.Len(t, res.Failed, 1)
			assert.Equal(t, "broken.fits", res.Failed[0].File)
			assert.True(t, apperrors.IsType(res.Failed[0], apperrors.ErrorTypeStructural))

			m := metrics.GetMetrics()
			assert.EqualValues(t, 5, m.Extracted)
			assert.EqualValues(t, 1, m.Failed)
		})
	}
}

func TestRunner_ExportCSV(t *testing.T) {
	src, err := storage.NewLocalStorage(fixtureDir(t))
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "catalog.csv")

	r, _, _ := newRunner(t, 2)
	res, err := r.Export(context.Background(), src, export.CSV{}, out)
	require.NoError(t, err)
	assert.Equal(t, out, res.Output)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := export.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, res.Records, records)
}

func TestRunner_ExportEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.fits"), []byte("junk"), 0o644))
	src, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "catalog.csv")

	r, _, hook := newRunner(t, 1)
	res, err := r.Export(context.Background(), src, export.CSV{}, out)
	require.NoError(t, err, "zero records is a warning, not an error")
	assert.Empty(t, res.Output)
	assert.Empty(t, res.Records)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRunner_ExportWriteFailure(t *testing.T) {
	src, err := storage.NewLocalStorage(fixtureDir(t))
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "missing", "catalog.csv")

	r, _, _ := newRunner(t, 1)
	res, err := r.Export(context.Background(), src, export.CSV{}, out)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Equal(t, 500, apperrors.GetStatusCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NotNil(t, res)
	assert.Len(t, res.Records, 5)
	assert.Empty(t, res.Output)
}

// cancelOnOpen cancels the run as soon as the first file is opened
type cancelOnOpen struct {
	storage.Source
	cancel context.CancelFunc
}

func (s cancelOnOpen) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.cancel()
	return s.Source.Open(ctx, name)
}

func TestRunner_CancelledMidRun(t *testing.T) {
	for _, workers := range []int{1, 2} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			local, err := storage.NewLocalStorage(fixtureDir(t))
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			r, _, _ := newRunner(t, workers)
			res, err := r.Run(ctx, cancelOnOpen{Source: local, cancel: cancel})
			require.NoError(t, err)

			assert.Equal(t, 6, len(res.Records)+len(res.Failed))
			assert.Less(t, len(res.Records), 6)
			cancelled := 0
			for _, f := range res.Failed {
				if errors.Is(f.Err, context.Canceled) {
					cancelled++
				}
			}
			assert.Positive(t, cancelled)
		})
	}
}

type failingSource struct{}

func (failingSource) List(context.Context) ([]string, error) { return nil, errors.New("denied") }
func (failingSource) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("denied")
}
func (failingSource) Location() string { return "nowhere" }

func TestRunner_ListFailure(t *testing.T) {
	r, _, _ := newRunner(t, 1)
	_, err := r.Run(context.Background(), failingSource{})
	assert.Error(t, err)
}

func TestRunner_Cancelled(t *testing.T) {
	src, err := storage.NewLocalStorage(fixtureDir(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _, _ := newRunner(t, 1)
	_, err = r.Run(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}
