package telemetry

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rileyhilliard/latensee/internal/errors"
)

// csvHeader matches the column names of the probe's own CSV export.
var csvHeader = []string{"timestampSeconds", "command", "latencyMicroSecond"}

// Row is one exported sample.
type Row struct {
	TimestampSeconds    float64
	Command             string
	LatencyMicroseconds float64
}

// Rows flattens a snapshot into one row per sample, grouped by command in
// arrival order and oldest first within each command.
func Rows(s Snapshot, intervalMilliseconds int64) []Row {
	rows := make([]Row, 0, s.Len())
	for _, key := range s.Keys {
		for _, p := range s.Points(key, intervalMilliseconds) {
			rows = append(rows, Row{
				TimestampSeconds:    p.Seconds,
				Command:             key,
				LatencyMicroseconds: p.Value,
			})
		}
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return exportError(err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatFloat(r.TimestampSeconds, 'f', -1, 64),
			r.Command,
			strconv.FormatFloat(r.LatencyMicroseconds, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return exportError(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return exportError(err)
	}
	return nil
}

func exportError(err error) error {
	return errors.WrapWithCode(err, errors.ErrExport,
		"Couldn't write telemetry CSV",
		"Check the output path is writable")
}
