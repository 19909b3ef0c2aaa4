package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeTempCSV(t,
		"DisclosureId,IngredientsId,Purpose,PercentHFJob,MassIngredient,Supplier,TradeName,JobStartDate,JobEndDate,TotalBaseWaterVolume,StateName,CountyName\n"+
			"d1,i1,Proppant,9.5,,Atlas Sand,40/70,2024-02-10,2024-02-14,4200000,Texas,Midland\n"+
			"d1,i2,Proppant,0.5,,Atlas Sand,100 Mesh,2024-02-10,2024-02-14,4200000,Texas,Midland\n")

	var rows []Row
	err := ReadFile(context.Background(), path, Options{}, func(chunk []Row) error {
		rows = append(rows, chunk...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "d1", rows[0].DisclosureID)
	assert.Equal(t, "i1", rows[0].IngredientID)
	assert.Equal(t, "Proppant", rows[0].Purpose)
	assert.Equal(t, "9.5", rows[0].PercentHFJob)
	assert.Equal(t, "4200000", rows[0].WaterVolumeGal)
	assert.Equal(t, "Midland", rows[0].CountyName)
	assert.Equal(t, "i2", rows[1].IngredientID)
}

func TestReadCSVHeaderAliases(t *testing.T) {
	// UploadKey-era export with SupplierName spelling.
	path := writeTempCSV(t,
		"UploadKey,IngredientId,Purpose,SupplierName,JobStartDate,JobEndDate,TotalBaseWaterVolume,StateName,CountyName\n"+
			"u1,i1,proppant,ACME,1/2/2023,1/5/2023,100,Texas,Reeves\n")

	var rows []Row
	err := ReadFile(context.Background(), path, Options{}, func(chunk []Row) error {
		rows = append(rows, chunk...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0].DisclosureID)
	assert.Equal(t, "ACME", rows[0].Supplier)
}

func TestReadCSVChunking(t *testing.T) {
	content := "DisclosureId,Purpose\n"
	for i := 0; i < 25; i++ {
		content += "d,Proppant\n"
	}
	path := writeTempCSV(t, content)

	var chunks int
	var total int
	err := ReadFile(context.Background(), path, Options{ChunkSize: 10}, func(chunk []Row) error {
		chunks++
		total += len(chunk)
		assert.LessOrEqual(t, len(chunk), 10)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, chunks)
	assert.Equal(t, 25, total)
}

func TestReadCSVWindows1252(t *testing.T) {
	// 0xF1 is n-tilde in Windows-1252 and invalid standalone UTF-8.
	raw := []byte("DisclosureId,CountyName\nd1,Pe\xf1a\n")
	path := filepath.Join(t.TempDir(), "latin.csv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	var rows []Row
	err := ReadFile(context.Background(), path, Options{Encoding: "windows-1252"}, func(chunk []Row) error {
		rows = append(rows, chunk...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Peña", rows[0].CountyName)
}

func TestReadCSVMissingDisclosureColumn(t *testing.T) {
	path := writeTempCSV(t, "Foo,Bar\n1,2\n")
	err := ReadFile(context.Background(), path, Options{}, func([]Row) error { return nil })
	assert.Error(t, err)
}

func TestReadFileUnsupportedExt(t *testing.T) {
	err := ReadFile(context.Background(), "data.parquet", Options{}, func([]Row) error { return nil })
	assert.Error(t, err)
}
