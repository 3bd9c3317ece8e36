package iiif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	testCases := []struct {
		in       string
		expected Size
	}{
		{"full", Size{Kind: SizeFull}},
		{"max", Size{Kind: SizeMax}},
		{"200,", Size{Kind: SizeWidth, Width: 200}},
		{",150", Size{Kind: SizeHeight, Height: 150}},
		{"pct:50", Size{Kind: SizePercent, Percent: 50}},
		{"pct:12.5", Size{Kind: SizePercent, Percent: 12.5}},
		{"200,150", Size{Kind: SizeExact, Width: 200, Height: 150}},
		{"!200,150", Size{Kind: SizeBestFit, Width: 200, Height: 150}},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			s, err := ParseSize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s)
			assert.Equal(t, tc.in, s.String())
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "200", ",", "0,", ",0", "-5,", "+5,", "a,b", "!200,", "!,200", "pct:", "pct:0", "pct:-1", "pct:x", "FULL", "200,,"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			assert.ErrorIs(t, err, ErrInvalidSize)
		})
	}
}

func TestSize_Dimensions(t *testing.T) {
	testCases := []struct {
		size  string
		srcW  int
		srcH  int
		width int
		high  int
	}{
		{"full", 4000, 3000, 4000, 3000},
		{"200,", 4000, 3000, 200, 150},
		{",150", 4000, 3000, 200, 150},
		{"pct:10", 4000, 3000, 400, 300},
		{"100,100", 4000, 3000, 100, 100},
		{"!200,200", 4000, 3000, 200, 150},
		{"!200,200", 3000, 4000, 150, 200},
		{"8000,", 4000, 3000, 8000, 6000},
	}

	for _, tc := range testCases {
		t.Run(tc.size, func(t *testing.T) {
			s, err := ParseSize(tc.size)
			require.NoError(t, err)
			w, h, err := s.Dimensions(tc.srcW, tc.srcH)
			require.NoError(t, err)
			assert.Equal(t, tc.width, w)
			assert.Equal(t, tc.high, h)
		})
	}

	t.Run("empty result is rejected", func(t *testing.T) {
		s, err := ParseSize("pct:1")
		require.NoError(t, err)
		_, _, err = s.Dimensions(40, 30)
		assert.ErrorIs(t, err, ErrSizeRejected)

		s, err = ParseSize("10,")
		require.NoError(t, err)
		_, _, err = s.Dimensions(4000, 100)
		assert.ErrorIs(t, err, ErrSizeRejected)
	})
}

func TestRequest_Path(t *testing.T) {
	s, err := ParseSize("200,")
	require.NoError(t, err)
	assert.Equal(t, "full/200,/0/default.jpg", NewRequest("ark:/1/2", s).Path())

	s, err = ParseSize("!150,150")
	require.NoError(t, err)
	assert.Equal(t, "full/!150,150/0/default.jpg", NewRequest("x", s).Path())
}
