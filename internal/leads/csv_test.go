package leads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, strings.Join([]string{
		"lead_id,name,email,message,source",
		`L001,Ada Lovelace,ada@example.com,"Need a demo, urgently",website`,
		"L002,Bo Diddley,bo@example.com,Just curious,referral",
	}, "\n"))

	leads, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "L001", leads[0].ID)
	assert.Equal(t, "Ada Lovelace", leads[0].Name)
	assert.Equal(t, "Need a demo, urgently", leads[0].Message)
	assert.Equal(t, "referral", leads[1].Source)
}

func TestLoadCSV_HeaderOrderIrrelevant(t *testing.T) {
	path := writeTemp(t, strings.Join([]string{
		"source,email,lead_id,message,name,extra",
		"web,a@b.com,L1,hello,Ann,ignored",
	}, "\n"))

	leads, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "L1", leads[0].ID)
	assert.Equal(t, "Ann", leads[0].Name)
	assert.Equal(t, "web", leads[0].Source)
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	path := writeTemp(t, "lead_id,name,email,message\nL1,Ann,a@b.com,hi")

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "source"`)
}

func TestLoadCSV_DuplicateLeadID(t *testing.T) {
	path := writeTemp(t, strings.Join([]string{
		"lead_id,name,email,message,source",
		"L1,Ann,a@b.com,hi,web",
		"L1,Ann Again,a2@b.com,hi again,web",
	}, "\n"))

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate lead_id "L1"`)
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	path := writeTemp(t, "")

	leads, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "leads.csv")

	leads, err := LoadCSV(writeTemp(t, strings.Join([]string{
		"lead_id,name,email,message,source",
		"L1,Ann,a@b.com,hi,web",
		"L2,Bo,bo@b.com,yo,ad",
	}, "\n")))
	require.NoError(t, err)

	require.NoError(t, WriteCSV(path, leads))

	again, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, leads, again)
}
