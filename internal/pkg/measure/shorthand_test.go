package measure

import (
	"testing"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestParseFont(t *testing.T) {
	tests := []struct {
		input string
		want  FontSpec
	}{
		{"12px Arial", FontSpec{Family: "Arial", Size: 12, Weight: WeightNormal, Style: StyleNormal}},
		{"bold 16px Arial", FontSpec{Family: "Arial", Size: 16, Weight: WeightBold, Style: StyleNormal}},
		{`italic 600 9pt "Open Sans", sans-serif`, FontSpec{Family: "Open Sans, sans-serif", Size: 12, Weight: "600", Style: StyleItalic}},
		{"normal 700 1em Go Mono", FontSpec{Family: "Go Mono", Size: 16, Weight: WeightBold, Style: StyleNormal}},
		{"small-caps light 11px/1.4 'Helvetica Neue'", FontSpec{Family: "Helvetica Neue", Size: 11, Weight: "light", Style: StyleNormal}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFont(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFontErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"Arial",
		"12 Arial",
		"12px",
		"wobbly 12px Arial",
		"1200 12px Arial",
		"0px Arial",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFont(input)
			require.Error(t, err)
		})
	}
}
