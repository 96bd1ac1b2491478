package measure

import (
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto"
)

// memo is an admission-controlled cache of measurements.
//
// Entries may be dropped or evicted at any time: a miss just means measuring again.
type memo struct {
	cache *ristretto.Cache
}

func newMemo(size int64) (*memo, error) {
	const countersPerEntry = 10

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * countersPerEntry,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &memo{cache: cache}, nil
}

func (c *memo) get(text string, font FontSpec) (TextMeasurement, bool) {
	v, ok := c.cache.Get(memoKey(text, font))
	if !ok {
		return TextMeasurement{}, false
	}

	m, ok := v.(TextMeasurement)

	return m, ok
}

func (c *memo) set(text string, font FontSpec, m TextMeasurement) {
	_ = c.cache.Set(memoKey(text, font), m, 1)
}

func (c *memo) close() {
	c.cache.Close()
}

// memoKey encodes the full (text, family, size, weight, style) tuple.
func memoKey(text string, font FontSpec) string {
	var b strings.Builder
	b.Grow(len(text) + len(font.Family) + len(font.Weight) + len(font.Style) + 24)

	b.WriteString(font.Family)
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(font.Size, 'g', -1, 64))
	b.WriteByte(0)
	b.WriteString(font.Weight)
	b.WriteByte(0)
	b.WriteString(font.Style)
	b.WriteByte(0)
	b.WriteString(text)

	return b.String()
}
