package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRows() []Row {
	return []Row{
		{
			Title:       "Stampante bloccata",
			Description: "La stampante del secondo piano non risponde",
			CreatorName: "Mario Rossi",
			StatusLabel: "Aperto",
			CreatedAt:   time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC),
		},
		{
			Title:       "VPN; accesso negato",
			Description: "Errore \"timeout\" al login",
			CreatorName: "Luisa Bianchi",
			StatusLabel: "Chiuso",
			CreatedAt:   time.Date(2026, 3, 16, 9, 5, 0, 0, time.UTC),
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	format, err = ParseFormat(" csv ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	reader := csv.NewReader(bytes.NewReader(raw[3:]))
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Titolo del ticket",
		"Descrizione del ticket",
		"Nome utente (creatore)",
		"Stato",
		"Data di creazione",
	}, records[0])

	assert.Equal(t, []string{
		"Stampante bloccata",
		"La stampante del secondo piano non risponde",
		"Mario Rossi",
		"Aperto",
		"15/03/2026 14:30",
	}, records[1])

	// fields containing the delimiter or quotes survive the round trip
	assert.Equal(t, "VPN; accesso negato", records[2][0])
	assert.Equal(t, "Errore \"timeout\" al login", records[2][1])
	assert.Equal(t, "16/03/2026 09:05", records[2][4])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	content := strings.TrimPrefix(buf.String(), "\ufeff")
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "Titolo del ticket;Descrizione del ticket;Nome utente (creatore);Stato;Data di creazione", lines[0])
}

type stubEncoder struct {
	payload []byte
	err     error
	partial bool
}

func (s stubEncoder) Write(w io.Writer, _ []Row) error {
	if s.partial {
		_, _ = w.Write([]byte("partial spreadsheet bytes"))
	}
	if s.err != nil {
		return s.err
	}
	_, err := w.Write(s.payload)
	return err
}

func TestExporterSpreadsheet(t *testing.T) {
	exporter := NewExporterWithEncoder(stubEncoder{payload: []byte("PK\x03\x04fake")}, zap.NewNop())

	var buf bytes.Buffer
	mediaType, err := exporter.Export(&buf, sampleRows(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, MediaTypeXLSX, mediaType)
	assert.Equal(t, "PK\x03\x04fake", buf.String())
}

func TestExporterFallsBackToCSV(t *testing.T) {
	exporter := NewExporterWithEncoder(stubEncoder{err: errors.New("boom"), partial: true}, zap.NewNop())

	var buf bytes.Buffer
	mediaType, err := exporter.Export(&buf, sampleRows(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, MediaTypeCSV, mediaType)

	// no partial spreadsheet bytes leak into the output
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.NotContains(t, buf.String(), "partial spreadsheet bytes")
	assert.Contains(t, buf.String(), "Titolo del ticket")
}

func TestExporterNilEncoder(t *testing.T) {
	exporter := NewExporterWithEncoder(nil, zap.NewNop())

	var buf bytes.Buffer
	mediaType, err := exporter.Export(&buf, sampleRows(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, MediaTypeCSV, mediaType)
}

func TestExporterCSVRequested(t *testing.T) {
	exporter := NewExporterWithEncoder(stubEncoder{payload: []byte("never")}, zap.NewNop())

	var buf bytes.Buffer
	mediaType, err := exporter.Export(&buf, sampleRows(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, MediaTypeCSV, mediaType)
	assert.NotContains(t, buf.String(), "never")
}
