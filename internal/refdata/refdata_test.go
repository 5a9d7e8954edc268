package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_CSVTables(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Capcodes: writeFile(t, dir, "db_capcodes.txt",
			"capcode,discipline,region,location,description,remark\n"+
				"1420059,Brandweer,Kennemerland,Haarlem,BRW Haarlem,tankautospuit\n"+
				"001234567 , Ambulance , Utrecht , Utrecht , Ambu Utrecht ,\n"),
		PlaceNames: writeFile(t, dir, "db_plaatsnamen.txt",
			"# places\nAmsterdam\n\n;skip\nBreda\nMoordrecht\n"),
		Abbreviations: writeFile(t, dir, "db_pltsnmn.txt",
			"afkorting,plaatsnaam\nMOORDR,Moordrecht\nASD,Amsterdam\n"),
	}

	tables := Load(paths, zap.NewNop())

	r, ok := tables.Receiver("001420059")
	require.True(t, ok)
	assert.Equal(t, "Brandweer", r.Discipline)
	assert.Equal(t, "Kennemerland", r.Region)
	assert.Equal(t, "BRW Haarlem", r.Description)
	assert.Equal(t, "tankautospuit", r.Remark)

	r, ok = tables.Receiver("1234567")
	require.True(t, ok, "short capcodes are padded on both sides")
	assert.Equal(t, "Ambulance", r.Discipline)
	assert.Equal(t, "", r.Remark)

	_, ok = tables.Receiver("999999999")
	assert.False(t, ok)

	assert.Equal(t, []string{"Amsterdam", "Breda", "Moordrecht"}, tables.PlaceNames())
	assert.True(t, tables.IsPlaceName("Breda"))
	assert.False(t, tables.IsPlaceName("breda"))

	name, ok := tables.PlaceName("MOORDR")
	require.True(t, ok)
	assert.Equal(t, "Moordrecht", name)
}

func TestLoad_MissingFilesYieldEmptyTables(t *testing.T) {
	dir := t.TempDir()
	tables := Load(Paths{
		Capcodes:      filepath.Join(dir, "nope.txt"),
		PlaceNames:    filepath.Join(dir, "nope2.txt"),
		Abbreviations: filepath.Join(dir, "nope3.txt"),
	}, zap.NewNop())

	receivers, places, abbreviations := tables.Counts()
	assert.Zero(t, receivers)
	assert.Zero(t, places)
	assert.Zero(t, abbreviations)

	_, ok := tables.Receiver("001420059")
	assert.False(t, ok)
}

func TestLoadReceivers_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capcodes.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"capcode", "discipline", "region", "location", "description", "remark"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"000120901", "Politie", "Amsterdam-Amstelland", "Amsterdam", "Politie Centrum", ""}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records := LoadReceivers(path, zap.NewNop())
	require.Len(t, records, 1)
	assert.Equal(t, "000120901", records[0].Capcode)
	assert.Equal(t, "Politie", records[0].Discipline)
	assert.Equal(t, "Politie Centrum", records[0].Description)
}

func TestLoadCapcodeFilter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ignore_capcodes.txt",
		"# test\n001420059,Proefalarm\n1420060\n")

	filter := LoadCapcodeFilter(path, zap.NewNop())
	assert.Equal(t, map[string]string{
		"001420059": "Proefalarm",
		"001420060": "NO DESCR",
	}, filter)
}

func TestNormalizeCapcode(t *testing.T) {
	assert.Equal(t, "001420059", NormalizeCapcode("1420059"))
	assert.Equal(t, "001420059", NormalizeCapcode(" 001420059 "))
	assert.Equal(t, "ABC", NormalizeCapcode("ABC"))
	assert.Equal(t, "", NormalizeCapcode(""))
}
