package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrder(t *testing.T) {
	want := []Code{
		JPEG, PNG, WebP, GIF, BMP, TIFF, HEIF, PSD, EXR, RAW,
		SVG, EPS, AI, PDF, ICO, TGA, DDS, PCX, XCF,
	}
	assert.Equal(t, want, Codes())
	assert.Len(t, List(), 19)
}

func TestListReturnsCopy(t *testing.T) {
	l := List()
	l[0].Label = "mutated"
	assert.Equal(t, "JPEG/JPG", List()[0].Label)
}

func TestReliabilityOf(t *testing.T) {
	for _, c := range []Code{JPEG, PNG, WebP, GIF, BMP} {
		r, err := ReliabilityOf(c)
		require.NoError(t, err)
		assert.Equal(t, Reliable, r, c)
	}
	for _, c := range []Code{TIFF, HEIF, PSD, EXR, RAW, EPS, AI, PDF, ICO, TGA, DDS, PCX, XCF} {
		r, err := ReliabilityOf(c)
		require.NoError(t, err)
		assert.Equal(t, BestEffort, r, c)
	}
}

func TestReliabilityOfUnknown(t *testing.T) {
	_, err := ReliabilityOf("avif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseIsCaseSensitive(t *testing.T) {
	c, err := Parse("webp")
	require.NoError(t, err)
	assert.Equal(t, WebP, c)

	_, err = Parse("WEBP")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Parse("jpg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLookupMIME(t *testing.T) {
	d, err := Lookup(SVG)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", d.MIMEType)
	assert.Equal(t, "svg", d.Extension())
}
