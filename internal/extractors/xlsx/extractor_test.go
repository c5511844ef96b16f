package xlsx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

func createTestXLSX(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const (
	workbook = `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Budget" sheetId="1" r:id="rId1"/><sheet name="Notes" sheetId="2" r:id="rId2"/></sheets>
</workbook>`

	rels = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`

	sharedStrings = `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Item</t></si><si><t>Amount</t></si><si><r><t>De</t></r><r><t>sk</t></r></si>
</sst>`

	sheet1 = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>300</v></c></row>
<row r="3"><c r="A3"/></row>
</sheetData></worksheet>`

	sheet2 = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>Approved</t></is></c><c r="B1" t="b"><v>1</v></c></row>
</sheetData></worksheet>`
)

func TestSupportedKinds(t *testing.T) {
	assert.Contains(t, New().SupportedKinds(), "xlsx")
}

func TestExtract(t *testing.T) {
	content := createTestXLSX(t, map[string]string{
		"xl/workbook.xml":            workbook,
		"xl/_rels/workbook.xml.rels": rels,
		"xl/sharedStrings.xml":       sharedStrings,
		"xl/worksheets/sheet1.xml":   sheet1,
		"xl/worksheets/sheet2.xml":   sheet2,
	})

	raw := &domain.RawFile{Filename: "budget.xlsx", Kind: "xlsx", Content: content}
	text, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t,
		"--- Sheet: Budget ---\nItem | Amount\nDesk | 300\n\n--- Sheet: Notes ---\nApproved | TRUE",
		text)
}

func TestExtract_WithoutWorkbook(t *testing.T) {
	content := createTestXLSX(t, map[string]string{
		"xl/sharedStrings.xml":     sharedStrings,
		"xl/worksheets/sheet1.xml": sheet1,
	})

	raw := &domain.RawFile{Filename: "loose.xlsx", Kind: "xlsx", Content: content}
	text, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "--- Sheet: Sheet1 ---\nItem | Amount\nDesk | 300", text)
}

func TestExtract_InvalidZip(t *testing.T) {
	raw := &domain.RawFile{Filename: "bad.xlsx", Kind: "xlsx", Content: []byte("nope")}
	_, err := New().Extract(context.Background(), raw)
	assert.Error(t, err)
}

func TestRenderRow(t *testing.T) {
	assert.Equal(t, "a | b", renderRow([]string{"a", "b", "", " "}))
	assert.Equal(t, "", renderRow([]string{"", ""}))
	assert.Equal(t, " | b", renderRow([]string{"", "b"}))
}
