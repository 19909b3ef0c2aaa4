package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func readCSV(ctx context.Context, path string, opts Options, fn ChunkFunc) error {
	file, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "ingest: open %s", path)
	}
	defer file.Close()

	var r io.Reader = file
	// Older FracFocus exports carry Windows-1252 bytes that are not valid UTF-8.
	if strings.EqualFold(opts.Encoding, "windows-1252") {
		r = transform.NewReader(file, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return eris.Wrapf(err, "ingest: read CSV header %s", path)
	}
	colIdx := mapHeader(header)
	if _, ok := colIdx["disclosure_id"]; !ok {
		return eris.Errorf("ingest: %s has no disclosure id column", path)
	}

	log := zap.L().With(zap.String("component", "ingest"), zap.String("file", path))

	size := chunkSize(opts)
	chunk := make([]Row, 0, size)
	var total, malformed int64

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(chunk); err != nil {
			return err
		}
		chunk = chunk[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "ingest: cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue // skip malformed rows
		}
		chunk = append(chunk, rowFromRecord(record, colIdx))
		total++
		if len(chunk) >= size {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("read CSV file", zap.Int64("rows", total), zap.Int64("malformed", malformed))
	return nil
}
