package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		page     string
		limit    string
		expected Params
	}{
		{"defaults", "", "", Params{Page: 1, Limit: 20}},
		{"explicit", "3", "50", Params{Page: 3, Limit: 50}},
		{"garbage", "abc", "-5", Params{Page: 1, Limit: 20}},
		{"limit capped", "1", "5000", Params{Page: 1, Limit: 100}},
		{"zero page", "0", "10", Params{Page: 1, Limit: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse(tc.page, tc.limit))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}

func TestNewPageNeverReturnsNilItems(t *testing.T) {
	page := NewPage[string](nil, 0, Params{Page: 1, Limit: 20})
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}
