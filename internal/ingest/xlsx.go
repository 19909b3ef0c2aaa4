package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

func readXLSX(ctx context.Context, path string, opts Options, fn ChunkFunc) error {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return eris.Wrapf(err, "ingest: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return eris.Errorf("ingest: %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var colIdx map[string]int
	size := chunkSize(opts)
	chunk := make([]Row, 0, size)
	var total int64

	for i, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "ingest: cancelled")
		}
		cells := rowToStrings(row)
		if i == 0 {
			colIdx = mapHeader(cells)
			if _, ok := colIdx["disclosure_id"]; !ok {
				return eris.Errorf("ingest: %s has no disclosure id column", path)
			}
			continue
		}
		chunk = append(chunk, rowFromRecord(cells, colIdx))
		total++
		if len(chunk) >= size {
			if err := fn(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		if err := fn(chunk); err != nil {
			return err
		}
	}

	zap.L().Info("read XLSX file",
		zap.String("component", "ingest"),
		zap.String("file", path),
		zap.Int64("rows", total),
	)
	return nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
