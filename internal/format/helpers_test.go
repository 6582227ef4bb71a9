package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThousands(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		85000:    "85,000",
		250000:   "250,000",
		1234567:  "1,234,567",
		-45000:   "-45,000",
		-1000000: "-1,000,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, Thousands(in), "Thousands(%d)", in)
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "120,000 Toman", Price(120000))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "94%", Percent(94))
	assert.Equal(t, "87.5%", Percent(87.5))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "250ms", Duration(250*time.Millisecond))
	assert.Equal(t, "12s", Duration(12*time.Second))
	assert.Equal(t, "2m 5s", Duration(125*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestBoolMark(t *testing.T) {
	assert.Equal(t, "✓", BoolMark(true))
	assert.Equal(t, "✗", BoolMark(false))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, Markdown, ParseMode("markdown"))
	assert.Equal(t, Markdown, ParseMode("md"))
	assert.Equal(t, ASCII, ParseMode(""))
	assert.Equal(t, ASCII, ParseMode("table"))
}
