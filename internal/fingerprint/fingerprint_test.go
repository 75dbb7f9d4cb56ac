package fingerprint_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/fingerprint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intp(v int) *int { return &v }

func laptop() fingerprint.Signals {
	return fingerprint.Signals{
		ScreenWidth:    intp(1920),
		ScreenHeight:   intp(1080),
		ColorDepth:     intp(24),
		TimezoneOffset: intp(-480),
		Timezone:       "Asia/Manila",
		Platform:       "MacIntel",
		CPUCores:       intp(8),
		Canvas:         "c4f1a9",
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := fingerprint.Generate(laptop())
	b := fingerprint.Generate(laptop())

	assert.Equal(t, a, b)
	assert.True(t, fingerprint.IsDeviceID(a))
	assert.Len(t, a, len(fingerprint.Prefix)+16)
}

func TestGenerate_DiffersAcrossHardware(t *testing.T) {
	other := laptop()
	other.ScreenWidth = intp(2560)
	other.CPUCores = intp(16)

	assert.NotEqual(t, fingerprint.Generate(laptop()), fingerprint.Generate(other))
}

func TestGenerate_MissingSignalsUseSentinel(t *testing.T) {
	id := fingerprint.Generate(fingerprint.Signals{})
	assert.True(t, fingerprint.IsDeviceID(id))

	// A zero offset (UTC) is a real signal, not a missing one.
	utc := fingerprint.Signals{TimezoneOffset: intp(0)}
	assert.NotEqual(t, id, fingerprint.Generate(utc))
}

func TestIsDeviceID(t *testing.T) {
	assert.False(t, fingerprint.IsDeviceID("2b1f3c9e-0000-4000-8000-000000000000"))
	assert.False(t, fingerprint.IsDeviceID("dev_zzzzzzzzzzzzzzzz"))
	assert.False(t, fingerprint.IsDeviceID("dev_"))
}

func TestProvider_GetPersistsAndReuses(t *testing.T) {
	calls := 0
	collector := fingerprint.CollectorFunc(func(context.Context) (fingerprint.Signals, error) {
		calls++
		return laptop(), nil
	})
	storage := &fingerprint.MemoryStorage{}
	p := fingerprint.NewProvider(collector, storage, zap.NewNop())

	first, err := p.Get(context.Background())
	require.NoError(t, err)
	second, err := p.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "signals are only collected once")

	stored, ok, _ := storage.Load(context.Background())
	assert.True(t, ok)
	assert.Equal(t, first, stored)
}

func TestProvider_CollectorFailureStillProducesID(t *testing.T) {
	collector := fingerprint.CollectorFunc(func(context.Context) (fingerprint.Signals, error) {
		return fingerprint.Signals{}, errors.New("canvas blocked")
	})
	p := fingerprint.NewProvider(collector, &fingerprint.MemoryStorage{}, zap.NewNop())

	id, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Generate(fingerprint.Signals{}), id)
}

type brokenStorage struct{}

func (brokenStorage) Load(context.Context) (string, bool, error) { return "", false, errors.New("quota") }
func (brokenStorage) Save(context.Context, string) error          { return errors.New("quota") }
func (brokenStorage) Clear(context.Context) error                 { return nil }

func TestProvider_StorageFailureIsNotFatal(t *testing.T) {
	p := fingerprint.NewProvider(fingerprint.StaticCollector(laptop()), brokenStorage{}, zap.NewNop())

	id, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Generate(laptop()), id)
}

func TestProvider_ResetRegenerates(t *testing.T) {
	storage := &fingerprint.MemoryStorage{}
	require.NoError(t, storage.Save(context.Background(), "dev_0000000000000001"))

	p := fingerprint.NewProvider(fingerprint.StaticCollector(laptop()), storage, zap.NewNop())

	got, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev_0000000000000001", got)

	reset, err := p.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Generate(laptop()), reset)
}

func TestFileStorage_RoundTrip(t *testing.T) {
	s := fingerprint.FileStorage{Path: filepath.Join(t.TempDir(), "nested", "device.json")}
	ctx := context.Background()

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "dev_00000000000000aa"))
	id, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dev_00000000000000aa", id)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.Load(ctx)
	assert.False(t, ok)
}
