package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/storage"
)

// Fetch downloads every .csv and .xlsx object under prefix into dir and
// returns the local paths in key order.
func Fetch(ctx context.Context, store storage.ObjectStorage, prefix, dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	var paths []string
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(path.Ext(obj.Key))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		local := filepath.Join(dir, path.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, local); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
		paths = append(paths, local)
	}
	return paths, nil
}
