package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		expected string
		wantErr  string
	}{
		{
			name:     "single placeholder",
			template: "{script}.php",
			params:   map[string]string{"script": "publications"},
			expected: "publications.php",
		},
		{
			name:     "multiple placeholders",
			template: "{version}/{script}.php",
			params:   map[string]string{"version": "2.04", "script": "login"},
			expected: "2.04/login.php",
		},
		{
			name:     "no placeholders",
			template: "statistics.php",
			params:   nil,
			expected: "statistics.php",
		},
		{
			name:     "values are percent encoded",
			template: "{script}.php",
			params:   map[string]string{"script": "a b/c"},
			expected: "a%20b%2Fc.php",
		},
		{
			name:     "missing value",
			template: "{script}.php",
			params:   map[string]string{},
			wantErr:  `missing value for path parameter "script"`,
		},
		{
			name:     "unterminated placeholder",
			template: "{script.php",
			params:   map[string]string{"script": "x"},
			wantErr:  "unterminated placeholder",
		},
		{
			name:     "empty placeholder",
			template: "{}.php",
			params:   map[string]string{},
			wantErr:  "empty placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.template, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var confErr *ConfigurationError
				assert.ErrorAs(t, err, &confErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEncodeForm(t *testing.T) {
	form, err := encodeForm(SearchOptions{
		Category: CategoryLibraries,
		OrderBy:  OrderByRating,
		Offset:   20,
		Count:    10,
		Query:    "double buffering",
		FileIDs:  []int64{4, 97},
	})
	require.NoError(t, err)

	assert.Equal(t, "2", form.Get("category_id"))
	assert.Equal(t, "rating", form.Get("order_by"))
	assert.Equal(t, "20", form.Get("offset"))
	assert.Equal(t, "10", form.Get("count"))
	assert.Equal(t, "double buffering", form.Get("search"))
	assert.Equal(t, "4,97", form.Get("file_ids"))
}

func TestEncodeFormOmitsZeroValues(t *testing.T) {
	form, err := encodeForm(SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, form)
}
