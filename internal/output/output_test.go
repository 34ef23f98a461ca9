// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	yaml "gopkg.in/yaml.v2"
)

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0, "type": "aws_instance"},
		{"name": "alpha", "count": 1.0, "type": "gcp_compute"},
		{"name": "beta", "count": 2.0, "type": "azure_vm"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{
			name:      "ascending by name",
			spec:      "name",
			wantOrder: []string{"alpha", "beta", "zebra"},
		},
		{
			name:      "descending by name",
			spec:      "-name",
			wantOrder: []string{"zebra", "beta", "alpha"},
		},
		{
			name:      "ascending by count",
			spec:      "count",
			wantOrder: []string{"alpha", "beta", "zebra"},
		},
		{
			name:      "descending by count",
			spec:      "-count",
			wantOrder: []string{"zebra", "beta", "alpha"},
		},
		{
			name:      "case sensitive",
			spec:      "!name",
			wantOrder: []string{"alpha", "beta", "zebra"},
		},
		{
			name:      "multiple fields",
			spec:      "count,name",
			wantOrder: []string{"alpha", "beta", "zebra"},
		},
		{
			name:      "empty spec",
			spec:      "",
			wantOrder: []string{"zebra", "alpha", "beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expectedName := range tt.wantOrder {
				assert.Equal(t, expectedName, data[i]["name"], "at index %d", i)
			}
		})
	}
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal string
		want     string
	}{
		{
			name:  "string",
			value: "hello",
			want:  "hello",
		},
		{
			name:  "int",
			value: 42,
			want:  "42",
		},
		{
			name:  "float64",
			value: 42.5,
			want:  "42",
		},
		{
			name:  "float64 with decimal",
			value: 42.7,
			want:  "43",
		},
		{
			name:  "bool true",
			value: true,
			want:  "true",
		},
		{
			name:  "bool false is zero value",
			value: false,
			want:  "",
		},
		{
			name:  "nil default",
			value: nil,
			want:  "",
		},
		{
			name:     "nil custom",
			value:    nil,
			emptyVal: "-",
			want:     "-",
		},
		{
			name:  "slice",
			value: []string{"a", "b"},
			want:  `["a","b"]`,
		},
		{
			name:  "map",
			value: map[string]int{"x": 1},
			want:  `{"x":1}`,
		},
		{
			name:  "zero value int",
			value: 0,
			want:  "",
		},
		{
			name:     "zero value with custom empty",
			value:    0,
			emptyVal: "N/A",
			want:     "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.emptyVal != "" {
				got = InterfaceToString(tt.value, tt.emptyVal)
			} else {
				got = InterfaceToString(tt.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

var itemCols = []Column{
	{Key: "id", Title: "id"},
	{Key: "title", Title: "title"},
	{Key: "sold", Title: "sold"},
	{Key: "images.#", Title: "images"},
}

const items = `[
  {"id": 2, "title": "Omega", "sold": false, "images": ["a", "b"]},
  {"id": 1, "title": "Rolex", "sold": true, "images": []}
]`

func TestProject(t *testing.T) {
	cols := append(itemCols, Column{
		Key:   "title",
		Title: "shout",
		Format: func(r gjson.Result) any {
			return r.String() + "!"
		},
	})
	got := Project(gjson.Parse(items).Array(), cols)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0]["id"])
	assert.Equal(t, "Omega", got[0]["title"])
	assert.Equal(t, 2.0, got[0]["images"])
	assert.Equal(t, true, got[1]["sold"])
	assert.Equal(t, "Rolex!", got[1]["shout"])
}

func TestEmit(t *testing.T) {
	t.Setenv("SPOTCTL_CFG", "/nonexistent/spotctl.yaml")

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		data := Project(gjson.Parse(items).Array(), itemCols)
		require.NoError(t, Emit(&buf, data, itemCols, Options{Format: "json", Sort: "id"}))
		assert.Equal(t, int64(1), gjson.Get(buf.String(), "0.id").Int())
		assert.Equal(t, "Omega", gjson.Get(buf.String(), "1.title").String())
	})

	t.Run("empty json is an array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Emit(&buf, nil, itemCols, Options{Format: "json"}))
		assert.JSONEq(t, "[]", buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		data := Project(gjson.Parse(items).Array(), itemCols)
		require.NoError(t, Emit(&buf, data, itemCols, Options{Format: "yaml"}))

		var back []map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		require.Len(t, back, 2)
		assert.Equal(t, "Omega", back[0]["title"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		data := Project(gjson.Parse(items).Array(), itemCols)
		require.NoError(t, Emit(&buf, data, itemCols, Options{Format: "text", Titles: true, Sort: "-title"}))
		out := buf.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "Omega")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("Rolex")), bytes.Index(buf.Bytes(), []byte("Omega")))
	})

	t.Run("text without rows prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Emit(&buf, nil, itemCols, Options{Format: "text"}))
		assert.Empty(t, buf.String())
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, Emit(&bytes.Buffer{}, nil, itemCols, Options{Format: "csv"}))
	})
}

func TestGetColors(t *testing.T) {
	// This test verifies that getColors returns strings
	header, even, odd := getColors("colors")

	// Should return strings (may be empty or defaults)
	assert.IsType(t, "", header)
	assert.IsType(t, "", even)
	assert.IsType(t, "", odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0},
		{"name": "alpha", "count": 1.0},
		{"name": "beta", "count": 2.0},
	}

	spec := "name"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := make([]map[string]interface{}, len(testData))
		copy(data, testData)
		SortDataset(data, spec)
	}
}

func BenchmarkInterfaceToString(b *testing.B) {
	values := []interface{}{
		"string",
		42,
		42.5,
		true,
		nil,
		[]string{"a", "b"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, v := range values {
			InterfaceToString(v)
		}
	}
}
