package reportsvc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSheetWriter_keepsFirstError(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *sheetWriter)
	}{
		{name: "invalid style", write: func(w *sheetWriter) {
			id := w.style(&excelize.Style{Font: &excelize.Font{Family: strings.Repeat("x", 40)}})
			assert.Zero(t, id)
		}},
		{name: "invalid cell", write: func(w *sheetWriter) { w.value("A0", "x") }},
		{name: "invalid merge", write: func(w *sheetWriter) { w.merge("A0", "B1") }},
		{name: "invalid style range", write: func(w *sheetWriter) { w.styleRange("A0", "A0", 0) }},
		{name: "invalid col width", write: func(w *sheetWriter) { w.colWidth("A", "A", 300) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer func() { _ = f.Close() }()
			_, err := f.NewSheet(sheetName)
			require.NoError(t, err)

			w := &sheetWriter{f: f}
			tc.write(w)
			require.Error(t, w.err)
			first := w.err

			w.value("A1", "after")
			assert.Equal(t, first, w.err)
			v, err := f.GetCellValue(sheetName, "A1")
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}
