package datanorm

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"15551234567", "5551234567"},
		{"+1 (555) 123-4567", "5551234567"},
		{"555-1234", "5551234"},
		{"", ""},
		{"n/a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizePhone(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizePhone(got), "normalization must be idempotent")
		})
	}
}

func TestNormalize_KixieMissingToNumber(t *testing.T) {
	res := Normalize("Disposition,Agent First Name\nConnected,Ana\n", FileKixie)

	assert.False(t, res.Success)
	var mce *MissingColumnsError
	require.True(t, errors.As(res.Err, &mce))
	assert.Equal(t, []string{"To Number"}, mce.Missing)
	assert.Equal(t, []string{"Disposition", "Agent First Name"}, mce.Available)
	assert.Nil(t, res.Data)
}

func TestNormalize_ListsEveryMissingField(t *testing.T) {
	res := Normalize("List Name\nNAICS\n", FilePowerlist)

	var mce *MissingColumnsError
	require.True(t, errors.As(res.Err, &mce))
	assert.Equal(t, []string{"Phone Number", "Connected", "Attempt Count"}, mce.Missing)
}

func TestNormalize_PowerlistLowercaseAlias(t *testing.T) {
	text := "phone_number,Connected,Attempt Count,Notes\n555-123-4567,1,3,vip\n(555) 987-6543,0,12,\n"
	res := Normalize(text, FilePowerlist)

	require.True(t, res.Success, "unexpected error: %v", res.Err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "555-123-4567", res.Data[0]["Phone Number"])
	assert.Equal(t, "(555) 987-6543", res.Data[1]["Phone Number"])
	assert.Equal(t, "vip", res.Data[0]["Notes"])
	assert.NotContains(t, res.Data[0], "phone_number")
	assert.Equal(t, []string{"phone_number", "Connected", "Attempt Count", "Notes"}, res.Columns)
	assert.Equal(t, []string{"Phone Number", "Connected", "Attempt Count", "Notes"}, res.Header)
}

func TestNormalize_TrimsHeadersAndStripsBOM(t *testing.T) {
	text := "\xEF\xBB\xBF phone_e164 , carrier \n+15551234567,Verizon\n\n"
	res := Normalize(text, FileTelesignWith)

	require.True(t, res.Success, "unexpected error: %v", res.Err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "+15551234567", res.Data[0]["phone_e164"])
	assert.Equal(t, "Verizon", res.Data[0]["carrier"])
}

func TestNormalize_AliasAmbiguity(t *testing.T) {
	text := "phone,Disposition,To Number\n111,Connected,222\n"
	res := Normalize(text, FileKixie)

	require.True(t, res.Success)
	assert.Equal(t, "111", res.Data[0]["To Number"], "first header in header order wins")
	require.Len(t, res.Ambiguities, 1)
	assert.Equal(t, FieldToNumber, res.Ambiguities[0].Field)
	assert.Equal(t, []string{"phone", "To Number"}, res.Ambiguities[0].Headers)
	assert.Equal(t, "phone", res.Ambiguities[0].Chosen)
}

func TestNormalize_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		res := Normalize("", FileKixie)
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, ErrEmptyFile)
	})

	t.Run("header only", func(t *testing.T) {
		res := Normalize("Disposition,To Number\n", FileKixie)
		var efe *EmptyFileError
		assert.True(t, errors.As(res.Err, &efe))
		assert.Equal(t, FileKixie, efe.FileType)
	})

	t.Run("wrong field count", func(t *testing.T) {
		res := Normalize("Disposition,To Number\nConnected,555,extra\n", FileKixie)
		var pe *ParseError
		require.True(t, errors.As(res.Err, &pe))
		assert.Equal(t, 2, pe.Line)
		assert.Contains(t, pe.Error(), "wrong number of fields")
	})

	t.Run("bare quote", func(t *testing.T) {
		res := Normalize("Disposition,To Number\nCon\"nected,555\n", FileKixie)
		var pe *ParseError
		assert.True(t, errors.As(res.Err, &pe))
	})

	t.Run("unknown type", func(t *testing.T) {
		res := Normalize("a\n1\n", FileType("crm"))
		assert.ErrorIs(t, res.Err, ErrUnknownFileType)
	})
}

func TestNormalize_RoundTrip(t *testing.T) {
	text := strings.Join([]string{
		"Outcome,phone,call_date,Time,Campaign",
		"Connected,(555) 123-4567,10/15/2025,9:30 AM,\"Fall, 2025\"",
		"Left voicemail,555.987.6543,10/16/2025,14:05,",
	}, "\n")

	first := Normalize(text, FileKixie)
	require.True(t, first.Success, "unexpected error: %v", first.Err)

	encoded, err := Encode(first)
	require.NoError(t, err)

	second := Normalize(encoded, FileKixie)
	require.True(t, second.Success, "unexpected error: %v", second.Err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Header, second.Header)
	assert.Equal(t, first.Header, second.Columns)
	assert.Equal(t, "Fall, 2025", second.Data[0]["Campaign"])
}

func TestEncode_RejectsFailedResult(t *testing.T) {
	_, err := Encode(NormalizeResult{Err: ErrEmptyFile})
	assert.Error(t, err)
}

func TestReadRows_Lenient(t *testing.T) {
	text := "Phone Number, Connected ,Attempt Count\n555-123-4567,1\n\n,,\n555-000-1111,0,4,overflow\nbad\"quote,0,1\n"
	header, rows, err := ReadRows(strings.NewReader(text))

	require.NoError(t, err)
	assert.Equal(t, []string{"Phone Number", "Connected", "Attempt Count"}, header)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{"Phone Number": "555-123-4567", "Connected": "1", "Attempt Count": ""}, rows[0])
	assert.Equal(t, "4", rows[1]["Attempt Count"])
	assert.Equal(t, "bad\"quote", rows[2]["Phone Number"])
}

func TestReadRows_Empty(t *testing.T) {
	header, rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Empty(t, rows)
}

func TestNormalize_CarriesLoaderOnlyHeaders(t *testing.T) {
	kixie := Normalize("outcome,to_number,date,call_status\nConnected,5551234567,10/15/2025,completed\n", FileKixie)
	require.True(t, kixie.Success, "unexpected error: %v", kixie.Err)
	assert.Equal(t, []string{"Disposition", "To Number", "date", "call_status"}, kixie.Header)
	assert.Equal(t, "10/15/2025", kixie.Data[0]["date"])
	assert.NotContains(t, kixie.Data[0], "Date")

	telesign := Normalize("phone,live,phone_carrier\n+15551234567,true,AT&T\n", FileTelesignWithout)
	require.True(t, telesign.Success, "unexpected error: %v", telesign.Err)
	assert.Equal(t, []string{"phone_e164", "live", "phone_carrier"}, telesign.Header)
	assert.NotContains(t, telesign.Data[0], "is_reachable")

	// Loaders still resolve the carried spellings.
	calls := LoadKixie(kixie.Data, time.UTC)
	require.Len(t, calls, 1)
	assert.Equal(t, "10/15/2025", calls[0].Date)
	assert.Equal(t, "completed", calls[0].Status)
	vals := LoadTelesign(nil, telesign.Data)
	require.Len(t, vals, 1)
	assert.True(t, vals[0].Reachable)
	assert.Equal(t, "AT&T", vals[0].Carrier)
}
