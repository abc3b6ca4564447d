package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(nextData string) []byte {
	return []byte(`<!DOCTYPE html><html><head><title>Stocks</title></head><body>
<div id="__next"></div>
<script id="__NEXT_DATA__" type="application/json">` + nextData + `</script>
</body></html>`)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		page    []byte
		want    []string
		wantErr bool
	}{
		{
			name: "string columns",
			page: page(`{"props":{"pageProps":{"screener":{"columns":["name","close","Perf.W"]}}}}`),
			want: []string{"name", "close", "Perf.W"},
		},
		{
			name: "object columns",
			page: page(`{"props":{"pageProps":{"table":{"cols":[{"name":"name"},{"key":"close"},{"code":"volume"},{"label":"no field"}]}}}}`),
			want: []string{"name", "close", "volume"},
		},
		{
			name: "container order",
			page: page(`{"props":{"pageProps":{"table":{"columns":["b"]},"screenerStore":{"tableColumns":["a"]}}}}`),
			want: []string{"a"},
		},
		{
			name: "key order within container",
			page: page(`{"props":{"pageProps":{"screener":{"cols":["c"],"tableColumns":["t"]}}}}`),
			want: []string{"t"},
		},
		{
			name: "empty list skipped",
			page: page(`{"props":{"pageProps":{"screener":{"columns":[]},"screenerProps":{"columns":["x"]}}}}`),
			want: []string{"x"},
		},
		{
			name: "duplicates dropped",
			page: page(`{"props":{"pageProps":{"screener":{"columns":["name","close","name",""]}}}}`),
			want: []string{"name", "close"},
		},
		{
			name: "non-object container ignored",
			page: page(`{"props":{"pageProps":{"screener":"oops","table":{"columns":["y"]}}}}`),
			want: []string{"y"},
		},
		{
			name:    "no columns",
			page:    page(`{"props":{"pageProps":{"other":{}}}}`),
			wantErr: true,
		},
		{
			name:    "no script",
			page:    []byte(`<html><body><script>var x = 1;</script></body></html>`),
			wantErr: true,
		},
		{
			name:    "invalid json",
			page:    page(`{"props":`),
			wantErr: true,
		},
		{
			name:    "empty script",
			page:    page(``),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.page)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubFetcher struct {
	body []byte
	err  error
	url  string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	s.url = url
	return s.body, s.err
}

func TestSource_Discover(t *testing.T) {
	fallback := []string{"name", "close"}

	t.Run("discovered", func(t *testing.T) {
		f := &stubFetcher{body: page(`{"props":{"pageProps":{"screener":{"columns":["sector"]}}}}`)}
		s := NewSource(f, "https://example.test/markets")

		assert.Equal(t, []string{"sector"}, s.Discover(context.Background(), fallback))
		assert.Equal(t, "https://example.test/markets", f.url)
	})

	t.Run("fetch error falls back", func(t *testing.T) {
		s := NewSource(&stubFetcher{err: errors.New("403")}, "u")
		assert.Equal(t, fallback, s.Discover(context.Background(), fallback))
	})

	t.Run("nothing found falls back", func(t *testing.T) {
		s := NewSource(&stubFetcher{body: []byte("<html></html>")}, "u")
		assert.Equal(t, fallback, s.Discover(context.Background(), fallback))
	})
}
