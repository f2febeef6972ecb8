package model

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Artefact file names under the models directory.
const (
	StockStatusFile = "stock_status.json"
	DelayRiskFile   = "delay_risk.json"
	QualityRiskFile = "quality_risk.json"
	FulfillmentFile = "fulfillment_risk.json"
)

// Loader reads predictor bundles from a local directory, optionally mirroring
// them from object storage first.
type Loader struct {
	dir    string
	store  storage.ObjectStorage
	prefix string
}

// NewLoader creates a loader over dir. store may be nil for local-only loading.
func NewLoader(dir string, store storage.ObjectStorage, prefix string) *Loader {
	return &Loader{dir: dir, store: store, prefix: prefix}
}

// Sync downloads every .json artefact under the configured prefix into the
// local directory and returns how many were fetched.
func (l *Loader) Sync(ctx context.Context) (int, error) {
	if l.store == nil {
		return 0, errors.New("no object storage configured")
	}

	objects, err := l.store.ListObjects(ctx, l.prefix)
	if err != nil {
		return 0, errors.Wrap(err, "list model artefacts")
	}

	fetched := 0
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		dest := filepath.Join(l.dir, path.Base(obj.Key))
		if err := l.store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return fetched, errors.Wrapf(err, "download %s", obj.Key)
		}
		log.Info().Str("key", obj.Key).Int64("size", obj.Size).Msg("model artefact downloaded")
		fetched++
	}
	return fetched, nil
}

// Load reads one bundle. A missing file is reported as ErrModelUnavailable.
func (l *Loader) Load(name string) (*Bundle, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(domain.ErrModelUnavailable, "%s not found in %s", name, l.dir)
		}
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()

	b, err := DecodeBundle(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return b, nil
}
