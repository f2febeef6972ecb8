package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memIngest struct {
	products []domain.Product
	txns     []domain.SupplierTransaction
	err      error
}

func (m *memIngest) UpsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.products = append(m.products, products...)
	return len(products), nil
}

func (m *memIngest) InsertTransactions(ctx context.Context, txns []domain.SupplierTransaction) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.txns = append(m.txns, txns...)
	return len(txns), nil
}

func TestNormalizeHeaders(t *testing.T) {
	for _, col := range []string{"Daily Sales", "daily_sales", "dailySales", " DAILY-SALES "} {
		assert.Equal(t, "dailysales", normalize(col), col)
	}
}

func TestImportProductsFromCSV(t *testing.T) {
	csv := "SKU,Product Name,Brand,Current Stock,Daily Sales,Weekly Sales,Lead Time\n" +
		"SKU-1,Widget,Acme,\"1,200\",5,35,7\n" +
		",Nameless,Acme,1,1,1,1\n" +
		"SKU-3,Broken,Acme,abc,1,1,1\n"
	table, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	repo := &memIngest{}
	sum, err := NewImporter(repo).ImportProducts(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 2, sum.Skipped)
	require.Len(t, sum.Errors, 2)
	assert.Contains(t, sum.Errors[0], "row 3")

	require.Len(t, repo.products, 1)
	p := repo.products[0]
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 1200.0, p.Stock)
	assert.Equal(t, 35.0, p.WeeklySales)
}

func TestImportProductsRequiresSKUColumn(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("name,stock\nWidget,3\n"))
	require.NoError(t, err)

	_, err = NewImporter(&memIngest{}).ImportProducts(context.Background(), table)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestImportTransactionsDerivesRawColumns(t *testing.T) {
	csv := "supplier,category,order_date,promised_date,actual_date,ordered_qty,delivered_qty,rejected_qty,base_price,payment_status\n" +
		"Apex,Electronics,2025-01-01,2025-01-10,2025-01-13,100,80,4,50,Under Review\n" +
		"Apex,Electronics,2025-01-02,2025-01-10,2025-01-08,10,0,0,50,On-Time\n" +
		"Apex,Electronics,2025-01-03,2025-01-10,2025-01-10,10,10,0,50,Lost\n"
	table, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	repo := &memIngest{}
	sum, err := NewImporter(repo).ImportTransactions(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 1, sum.Skipped)

	require.Len(t, repo.txns, 2)
	first := repo.txns[0]
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.OrderDate)
	assert.Equal(t, 3.0, first.DelayDays)
	assert.InDelta(t, 0.8, first.FulfillmentRatio, 1e-9)
	assert.InDelta(t, 0.05, first.RejectionRatio, 1e-9)
	assert.Equal(t, 1.0, first.PaymentRisk)

	second := repo.txns[1]
	assert.Equal(t, -2.0, second.DelayDays)
	assert.Equal(t, 0.0, second.FulfillmentRatio)
	assert.Equal(t, 0.0, second.RejectionRatio)
}

func TestImportTransactionsPrefersProcessedColumns(t *testing.T) {
	csv := "supplier,order_date,ordered_qty,base_price,payment_risk,delay_days,fulfillment_ratio,rejection_ratio\n" +
		"Borealis,2025-02-01,40,9.5,2,6,0.7,0.1\n"
	table, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	repo := &memIngest{}
	_, err = NewImporter(repo).ImportTransactions(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, repo.txns, 1)
	txn := repo.txns[0]
	assert.Equal(t, 6.0, txn.DelayDays)
	assert.Equal(t, 0.7, txn.FulfillmentRatio)
	assert.Equal(t, 0.1, txn.RejectionRatio)
	assert.Equal(t, 2.0, txn.PaymentRisk)
}

func TestImportPropagatesStoreError(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("sku\nSKU-1\n"))
	require.NoError(t, err)

	_, err = NewImporter(&memIngest{err: errors.New("db down")}).ImportProducts(context.Background(), table)
	assert.EqualError(t, err, "db down")
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"SKU", "Name", "Stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"SKU-9", "Gadget", 12}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Gadget", table.Get(table.Rows[0], "name"))
	assert.Equal(t, "12", table.Get(table.Rows[0], "stock"))
	assert.Equal(t, "", table.Get(table.Rows[0], "brand"))
}

func TestReadFileRejectsUnknownExtension(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "data.json"))
	assert.Error(t, err)
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

func TestFetchDownloadsSpreadsheets(t *testing.T) {
	store := &memStorage{objects: map[string][]byte{
		"imports/b.csv":     []byte("sku\nB\n"),
		"imports/a.csv":     []byte("sku\nA\n"),
		"imports/notes.txt": []byte("skip"),
		"other/c.csv":       []byte("sku\nC\n"),
	}}
	dir := t.TempDir()

	paths, err := Fetch(context.Background(), store, "imports/", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")}, paths)

	table, err := ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "B", table.Get(table.Rows[0], "sku"))
}
