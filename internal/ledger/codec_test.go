package ledger

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 25} {
		t.Run(fmt.Sprintf("%d links", n), func(t *testing.T) {
			links := make([]types.Link, 0, n)
			for i := 0; i < n; i++ {
				links = append(links, types.Link{
					Name: fmt.Sprintf("Lesson %d-%d", i*10+1, i*10+10),
					URL:  fmt.Sprintf("/lessons/lesson-7-%03d.html", i),
				})
			}

			blob, err := Encode(links)
			require.NoError(t, err)
			got, err := Decode(blob)
			require.NoError(t, err)

			if diff := cmp.Diff(links, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_Nil(t *testing.T) {
	blob, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", blob)
}

func TestEncode_EscapesSpecialCharacters(t *testing.T) {
	links := []types.Link{{Name: `Ana "A" | B`, URL: "https://docs.example.com/d?a=1&b=2"}}
	blob, err := Encode(links)
	require.NoError(t, err)

	got, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, links, got)
}

func TestDecode_Empty(t *testing.T) {
	for _, blob := range []string{"", "   ", "\n", "null", "[]"} {
		got, err := Decode(blob)
		require.NoError(t, err, "blob %q", blob)
		assert.NotNil(t, got, "blob %q", blob)
		assert.Empty(t, got, "blob %q", blob)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"truncated", `[{"name":"a","url":"b"`},
		{"object not array", `{"name":"a","url":"b"}`},
		{"unknown field", `[{"name":"a","url":"b","extra":1}]`},
		{"missing url", `[{"name":"a"}]`},
		{"blank name", `[{"name":" ","url":"b"}]`},
		{"trailing data", `[] []`},
		{"legacy text", "Week 1 | https://example.com/1"},
		{"number", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			assert.ErrorIs(t, err, types.ErrMalformedLedger)
		})
	}
}

func TestParseLegacy(t *testing.T) {
	text := "Week 1 | https://docs.example.com/1\n\n  Notes | with pipe | https://docs.example.com/2  \n"
	got, err := ParseLegacy(text)
	require.NoError(t, err)

	want := []types.Link{
		{Name: "Week 1", URL: "https://docs.example.com/1"},
		{Name: "Notes | with pipe", URL: "https://docs.example.com/2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLegacy mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLegacy_Invalid(t *testing.T) {
	_, err := ParseLegacy("Week 1 https://docs.example.com/1")
	assert.ErrorIs(t, err, types.ErrMalformedLedger)

	_, err = ParseLegacy("Week 1 |")
	assert.ErrorIs(t, err, types.ErrMalformedLedger)
}

func TestNormalize(t *testing.T) {
	canonical := `[{"name":"Week 1","url":"https://docs.example.com/1"}]`

	tests := []struct {
		name        string
		blob        string
		want        string
		wantChanged bool
		wantErr     error
	}{
		{name: "blank", blob: "", want: "", wantChanged: false},
		{name: "canonical", blob: canonical, want: canonical, wantChanged: false},
		{name: "canonical with spacing", blob: `[ {"name": "Week 1", "url": "https://docs.example.com/1"} ]`, want: canonical, wantChanged: true},
		{name: "legacy", blob: "Week 1 | https://docs.example.com/1", want: canonical, wantChanged: true},
		{name: "legacy name in brackets", blob: "[Unit 1] Reading | https://docs.example.com/1",
			want: `[{"name":"[Unit 1] Reading","url":"https://docs.example.com/1"}]`, wantChanged: true},
		{name: "legacy name in braces", blob: "{draft} | https://docs.example.com/2",
			want: `[{"name":"{draft}","url":"https://docs.example.com/2"}]`, wantChanged: true},
		{name: "broken json", blob: `[{"name":`, wantErr: types.ErrMalformedLedger},
		{name: "unparseable text", blob: "just some words", wantErr: types.ErrMalformedLedger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := Normalize(tt.blob)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}
