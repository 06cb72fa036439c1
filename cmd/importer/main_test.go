package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/domain"
	"vendite/backend/internal/logger"
	"vendite/backend/internal/store"
	sqlitestore "vendite/backend/internal/store/sqlite"
)

const ecommerceExport = "Documento;Numero;Data;SKU;Quantita;Prezzo;Spese di spedizione\n" +
	"FATTURA;1;01/10/2025 10:00;A;1;100,00;5,00\n" +
	"FATTURA;1;01/10/2025 10:00;B;2;20,00;\n" +
	"RESO;7;02/10/2025;A;1;100,00;\n"

func writeExport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunImportsIntoSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vendite.db")
	opts := options{
		file:       writeExport(t, "ordini.csv", ecommerceExport),
		kind:       domain.UploadEcommerce,
		sqlitePath: dbPath,
		chunkSize:  1,
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out, logger.Nop()))
	assert.Contains(t, out.String(), "vendite: 2 (145.00), resi: 1 (-100.00)")
	assert.Contains(t, out.String(), "[1/2] sales: 100%")
	assert.Contains(t, out.String(), "[1/2] sales: 2 salvati, 0 duplicati saltati (2 blocchi)")
	assert.Contains(t, out.String(), "[2/2] returns: 0%")
	assert.Contains(t, out.String(), "[2/2] returns: 1 salvati")

	// A second run finds everything already stored.
	out.Reset()
	require.NoError(t, run(context.Background(), opts, &out, logger.Nop()))
	assert.Contains(t, out.String(), "duplicati: 3")

	kv, err := sqlitestore.New(context.Background(), dbPath)
	require.NoError(t, err)
	defer kv.Close()
	sales, err := kv.Scan(context.Background(), store.SalesPrefix)
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

func TestRunDryRunAndRowErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vendite.db")
	file := writeExport(t, "vendite.csv", "Data;Utente;SKU;Quant.;Prezzo\n15/12/2024;carla;X;2;50\n15/12/2024;sconosciuto;Y;1;10\n")

	var out bytes.Buffer
	err := run(context.Background(), options{file: file, kind: domain.UploadStoreSales, sqlitePath: dbPath}, &out, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, out.String(), "errori (1):")

	out.Reset()
	require.NoError(t, run(context.Background(), options{file: file, kind: domain.UploadStoreSales, sqlitePath: dbPath, dryRun: true}, &out, logger.Nop()))
	assert.NotContains(t, out.String(), "salvati")

	out.Reset()
	require.NoError(t, run(context.Background(), options{file: file, kind: domain.UploadStoreSales, sqlitePath: dbPath, allowErrors: true}, &out, logger.Nop()))
	assert.Contains(t, out.String(), "[1/1] sales: 1 salvati")
}

func TestRunValidatesOptions(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), options{kind: "orders", file: "x.csv"}, &out, logger.Nop()))
	assert.Error(t, run(context.Background(), options{kind: domain.UploadInventory}, &out, logger.Nop()))

	file := writeExport(t, "magazzino.csv", "SKU;Brand\nA;Zuklat\n")
	err := run(context.Background(), options{kind: domain.UploadInventory, file: file, server: "http://127.0.0.1:1"}, &out, logger.Nop())
	assert.ErrorContains(t, err, "VENDITE_PASSWORD")
}
