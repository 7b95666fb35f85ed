package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Media types reported for produced artifacts.
const (
	MediaTypeCSV  = "text/csv; charset=utf-8"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	sheetName  = "Tickets"
	timeLayout = "02/01/2006 15:04"
)

var header = []string{
	"Titolo del ticket",
	"Descrizione del ticket",
	"Nome utente (creatore)",
	"Stato",
	"Data di creazione",
}

// Format selects the requested output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format from its name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("invalid export format %q", raw)
}

// Row is one exported ticket in fixed column order.
type Row struct {
	Title       string
	Description string
	CreatorName string
	StatusLabel string
	CreatedAt   time.Time
}

func (r Row) cells() []string {
	return []string{
		r.Title,
		r.Description,
		r.CreatorName,
		r.StatusLabel,
		r.CreatedAt.Format(timeLayout),
	}
}

// WriteCSV emits the delimited-text rendition: semicolon separated, UTF-8
// with byte-order mark, fixed Italian header row.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.cells()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SpreadsheetEncoder renders rows to a spreadsheet binary.
type SpreadsheetEncoder interface {
	Write(w io.Writer, rows []Row) error
}

// Exporter renders ticket rows, degrading from spreadsheet to delimited
// text when the spreadsheet encoder is unavailable or fails. The caller
// contract never changes; only the reported media type does.
type Exporter struct {
	spreadsheet SpreadsheetEncoder
	logger      *zap.Logger
}

// NewExporter builds an exporter with the default spreadsheet encoder.
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{spreadsheet: ExcelEncoder{}, logger: logger}
}

// NewExporterWithEncoder overrides the spreadsheet encoder; nil disables
// spreadsheet output entirely.
func NewExporterWithEncoder(encoder SpreadsheetEncoder, logger *zap.Logger) *Exporter {
	return &Exporter{spreadsheet: encoder, logger: logger}
}

// Export writes rows in the requested format and returns the media type of
// what was actually produced.
func (e *Exporter) Export(w io.Writer, rows []Row, format Format) (string, error) {
	if format == FormatXLSX && e.spreadsheet != nil {
		// buffered so a mid-stream encoder failure leaves w untouched
		var buf bytes.Buffer
		if err := e.spreadsheet.Write(&buf, rows); err == nil {
			if _, err := w.Write(buf.Bytes()); err != nil {
				return "", err
			}
			return MediaTypeXLSX, nil
		} else if e.logger != nil {
			e.logger.Warn("spreadsheet encoder failed; falling back to delimited text", zap.Error(err))
		}
	}
	if err := WriteCSV(w, rows); err != nil {
		return "", err
	}
	return MediaTypeCSV, nil
}
