package model

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delayBundleJSON = `{
  "name": "delay_risk",
  "features": ["supplier_id", "category_id", "ordered_qty", "base_price", "payment_risk"],
  "encoders": {"supplier": ["Apex Logistics", "Borealis"], "category": ["Electronics", "Textiles"]},
  "model": {
    "objective": "reg:squarederror",
    "base_score": 1.0,
    "trees": [
      {"nodes": [{"feature": 2, "threshold": 300, "left": 1, "right": 2}, {"leaf": 0.5}, {"leaf": 4.0}]},
      {"nodes": [{"feature": 4, "threshold": 0.5, "left": 1, "right": 2}, {"leaf": 0.0}, {"leaf": 2.5}]}
    ]
  }
}`

func leaf(v float64) *float64 { return &v }

func TestLabelEncoderUnknownBucket(t *testing.T) {
	enc := NewLabelEncoder([]string{"A", "B", "A"})

	assert.Equal(t, []string{"A", "B", UnknownClass}, enc.Classes())
	assert.Equal(t, 1, enc.Encode("B"))
	assert.Equal(t, 2, enc.Encode("never-seen"))

	_, ok := enc.Lookup("never-seen")
	assert.False(t, ok)

	label, ok := enc.Decode(0)
	assert.True(t, ok)
	assert.Equal(t, "A", label)

	_, ok = enc.Decode(7)
	assert.False(t, ok)
}

func TestLabelEncoderKeepsExistingUnknown(t *testing.T) {
	enc := NewLabelEncoder([]string{UnknownClass, "X"})
	assert.Equal(t, 0, enc.Encode("missing"))
	assert.Len(t, enc.Classes(), 2)
}

func TestEncoderSetMissingField(t *testing.T) {
	set := EncoderSet{"brand": NewLabelEncoder([]string{"Acme"})}
	assert.Equal(t, 0, set.Encode("Brand", "Acme"))
	assert.Equal(t, 1, set.Encode("brand", "Other"))
	assert.Equal(t, 0, set.Encode("location", "Anywhere"))
}

func TestEnsembleRegression(t *testing.T) {
	b, err := DecodeBundle(strings.NewReader(delayBundleJSON))
	require.NoError(t, err)

	got, err := b.Predict([]float64{0, 0, 100, 50, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-9)

	got, err = b.Predict([]float64{0, 0, 500, 50, 1})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, got, 1e-9)

	_, err = b.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestEnsembleMulticlass(t *testing.T) {
	e := &Ensemble{
		NumClass: 3,
		Trees: []Tree{
			{Nodes: []Node{{Leaf: leaf(0.1)}}},
			{Nodes: []Node{{Feature: 0, Threshold: 10, Left: 1, Right: 2}, {Leaf: leaf(2)}, {Leaf: leaf(-1)}}},
			{Nodes: []Node{{Leaf: leaf(0.5)}}},
		},
	}

	cls, err := e.Predict([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, cls)

	cls, err = e.Predict([]float64{50})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cls)
}

func TestTreeRejectsBadIndices(t *testing.T) {
	e := &Ensemble{Trees: []Tree{{Nodes: []Node{{Feature: 0, Threshold: 1, Left: 0, Right: 9}}}}}
	_, err := e.Predict([]float64{0})
	assert.Error(t, err)

	e = &Ensemble{Trees: []Tree{{Nodes: []Node{{Feature: 3, Threshold: 1, Left: 1, Right: 1}, {Leaf: leaf(1)}}}}}
	_, err = e.Predict([]float64{0})
	assert.Error(t, err)
}

func TestDecodeBundleRequiresModel(t *testing.T) {
	_, err := DecodeBundle(strings.NewReader(`{"name": "empty"}`))
	assert.Error(t, err)
}

func TestLoaderMissingFileIsModelUnavailable(t *testing.T) {
	loader := NewLoader(t.TempDir(), nil, "")
	_, err := loader.Load(DelayRiskFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
}

func TestLoadRegistryPartial(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DelayRiskFile), []byte(delayBundleJSON), 0o644))

	reg, statuses := LoadRegistry(context.Background(), NewLoader(dir, nil, ""), false)

	require.NotNil(t, reg.Delay)
	assert.Nil(t, reg.Quality)
	assert.Nil(t, reg.StockStatus)
	assert.False(t, reg.SupplierModelsLoaded())
	require.Len(t, statuses, 4)
	loaded := 0
	for _, st := range statuses {
		if st.Loaded {
			loaded++
			assert.Equal(t, "delay_risk", st.Name)
		}
	}
	assert.Equal(t, 1, loaded)
}

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return os.WriteFile(destPath, m.objects[key], 0o644)
}

func (m *memStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	m.objects[key] = data
	return nil
}

func TestLoaderSync(t *testing.T) {
	dir := t.TempDir()
	store := &memStorage{objects: map[string][]byte{
		"models/delay_risk.json": []byte(delayBundleJSON),
		"models/README.md":       []byte("ignored"),
		"other/quality.json":     []byte("{}"),
	}}

	loader := NewLoader(dir, store, "models/")
	n, err := loader.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err := loader.Load(DelayRiskFile)
	require.NoError(t, err)
	assert.Equal(t, "delay_risk", b.Name)
}

func TestLoaderSyncWithoutStorage(t *testing.T) {
	_, err := NewLoader(t.TempDir(), nil, "").Sync(context.Background())
	assert.Error(t, err)
}
