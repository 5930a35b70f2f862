package sponsor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func writeRef(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// oddLen pads with a trailing newline so an even byte count can never be
// misread as UTF-16.
func oddLen(data []byte) []byte {
	if len(data)%2 == 0 {
		data = append(data, '\n')
	}
	return data
}

func TestLoadReferenceUTF16Tabs(t *testing.T) {
	text := "Employer (Petitioner) Name\tCity\n" +
		"GOOGLE LLC\tMountain View\n" +
		"Stripe, Inc.\tSan Francisco\n"

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(text))
	require.NoError(t, err)

	ref, err := LoadReference([]string{writeRef(t, "h1b.tsv", data)}, LoaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, ref.Len())
	assert.True(t, ref.Contains("google"))
	assert.True(t, ref.Contains("stripe"))
}

func TestLoadReferenceUTF8Commas(t *testing.T) {
	data := oddLen([]byte(
		"EmployerName,City\n" +
			"Microsoft Corporation,Redmond\n" +
			"Datadog,New York\n"))

	ref, err := LoadReference([]string{writeRef(t, "ref.csv", data)}, LoaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, ref.Len())
	assert.True(t, ref.Contains("microsoft corporation"))
	assert.True(t, ref.Contains("datadog"))
}

func TestLoadReferenceSemicolons(t *testing.T) {
	data := oddLen([]byte("Employer;Country\nSAP SE;Germany\n"))

	ref, err := LoadReference([]string{writeRef(t, "ref.txt", data)}, LoaderOptions{})
	require.NoError(t, err)

	assert.True(t, ref.Contains("sap se"))
}

func TestLoadReferenceVisaAndStatusFilters(t *testing.T) {
	data := oddLen([]byte(
		"EmployerName,VisaClass,CaseStatus\n" +
			"Alpha,H-1B,Certified\n" +
			"Bravo,H-1B,Denied\n" +
			"Charlie,E-2,Certified\n" +
			"Delta,H-1B,Approved\n"))

	ref, err := LoadReference([]string{writeRef(t, "raw.csv", data)}, LoaderOptions{})
	require.NoError(t, err)

	assert.True(t, ref.Contains("alpha"))
	assert.True(t, ref.Contains("delta"))
	assert.False(t, ref.Contains("bravo"), "denied cases are dropped")
	assert.False(t, ref.Contains("charlie"), "non H-1B classes are dropped")
}

func TestLoadReferenceMinCases(t *testing.T) {
	data := oddLen([]byte(
		"EmployerName,City\nRepeatCo,NYC\nRepeatCo,SF\nOnceCo,LA\n"))

	ref, err := LoadReference([]string{writeRef(t, "counts.csv", data)}, LoaderOptions{MinCases: 2})
	require.NoError(t, err)

	assert.True(t, ref.Contains("repeatco"))
	assert.False(t, ref.Contains("onceco"))
}

func TestLoadReferenceMergesFiles(t *testing.T) {
	a := writeRef(t, "a.csv", oddLen([]byte("EmployerName,City\nAlpha,NYC\n")))
	b := writeRef(t, "b.csv", oddLen([]byte("Employer,City\nBravo,SF\nAlpha,LA\n")))

	ref, err := LoadReference([]string{a, b}, LoaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, ref.Len())
	assert.Equal(t, []string{"alpha", "bravo"}, ref.Names())
}

func TestLoadReferenceMissingEmployerColumn(t *testing.T) {
	data := oddLen([]byte("Name,City\nAlpha,NYC\n"))

	_, err := LoadReference([]string{writeRef(t, "bad.csv", data)}, LoaderOptions{})
	assert.ErrorIs(t, err, ErrMissingEmployerColumn)
}

func TestLoadReferenceUnreadable(t *testing.T) {
	data := oddLen([]byte("justoneword"))

	_, err := LoadReference([]string{writeRef(t, "junk.bin", data)}, LoaderOptions{})
	assert.ErrorIs(t, err, ErrUnreadableReferenceData)
}
