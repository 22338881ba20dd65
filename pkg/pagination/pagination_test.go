package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Size)
	assert.Equal(t, 0, p.Offset())
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/courses?page=4&page_size=25", nil)
	p := FromRequest(req)

	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 25, p.Size)
	assert.Equal(t, 75, p.Offset())
}

func TestFromRequest_RejectsInvalidValues(t *testing.T) {
	for _, q := range []string{"page=0", "page=-2", "page=abc", "page_size=0", "page_size=9999"} {
		req := httptest.NewRequest(http.MethodGet, "/courses?"+q, nil)
		p := FromRequest(req)
		assert.Equal(t, 1, p.Page, q)
		assert.Equal(t, 20, p.Size, q)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b"}, 45, Params{Page: 2, Size: 20})

	assert.Equal(t, 45, p.TotalCount)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.Len(t, p.Items, 2)
}

func TestNewPage_LastPage(t *testing.T) {
	p := NewPage([]string{"a"}, 41, Params{Page: 3, Size: 20})
	assert.False(t, p.HasNext)
}

func TestNewPage_NilItems(t *testing.T) {
	p := NewPage[string](nil, 0, Params{Page: 1, Size: 20})
	assert.NotNil(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
}
