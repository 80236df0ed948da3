package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshalSortsKeys(t *testing.T) {
	t.Parallel()

	got, err := MarshalString(map[string]any{
		"zulu":  1,
		"alpha": 2,
		"mike":  3,
	})
	assert.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mike":3,"zulu":1}`, got)
}

func TestMarshalInsertionOrderIrrelevant(t *testing.T) {
	t.Parallel()

	a := map[string]any{}
	a["x"] = 1
	a["y"] = map[string]any{"b": 2, "a": 1}

	b := map[string]any{}
	b["y"] = map[string]any{"a": 1, "b": 2}
	b["x"] = 1

	ea, err := Marshal(a)
	assert.NoError(t, err)
	eb, err := Marshal(b)
	assert.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestMarshalNoWhitespace(t *testing.T) {
	t.Parallel()

	got, err := MarshalString(map[string]any{
		"list": []any{1, "two", nil, true},
		"nest": map[string]any{"k": "v"},
	})
	assert.NoError(t, err)
	assert.NotContains(t, got, " ")
	assert.Equal(t, `{"list":[1,"two",null,true],"nest":{"k":"v"}}`, got)
}

func TestMarshalStructsAndMapsAgree(t *testing.T) {
	t.Parallel()

	type payload struct {
		Code      string  `json:"code"`
		Threshold float64 `json:"threshold"`
	}

	fromStruct, err := MarshalString(payload{Code: "MAX", Threshold: 0.4})
	assert.NoError(t, err)

	fromMap, err := MarshalString(map[string]any{"threshold": 0.4, "code": "MAX"})
	assert.NoError(t, err)

	assert.Equal(t, fromStruct, fromMap)
}

func TestMarshalPreservesNumberText(t *testing.T) {
	t.Parallel()

	got, err := MarshalString(map[string]any{"v": 0.1})
	assert.NoError(t, err)
	assert.Equal(t, `{"v":0.1}`, got)
}

func TestMarshalUnencodable(t *testing.T) {
	t.Parallel()

	_, err := Marshal(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
