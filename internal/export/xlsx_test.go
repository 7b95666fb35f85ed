package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelEncoderWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExcelEncoder{}.Write(&buf, sampleRows()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	assert.Equal(t, []string{"Tickets"}, f.GetSheetList())

	headerCell, err := f.GetCellValue("Tickets", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Titolo del ticket", headerCell)

	title, err := f.GetCellValue("Tickets", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Stampante bloccata", title)

	status, err := f.GetCellValue("Tickets", "D3")
	require.NoError(t, err)
	assert.Equal(t, "Chiuso", status)

	created, err := f.GetCellValue("Tickets", "E2")
	require.NoError(t, err)
	assert.Equal(t, "15/03/2026 14:30", created)
}
