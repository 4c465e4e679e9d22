package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestNumber(t *testing.T) {
	doc := gjson.Parse(`{"a":1688.5,"b":"12.3","c":"-","d":null,"e":"1,200","f":true}`)

	assert.Equal(t, 1688.5, Number(doc.Get("a")).Float64)
	assert.Equal(t, 12.3, Number(doc.Get("b")).Float64)
	assert.False(t, Number(doc.Get("c")).Valid)
	assert.False(t, Number(doc.Get("d")).Valid)
	assert.Equal(t, 1200.0, Float(doc.Get("e")))
	assert.False(t, Number(doc.Get("f")).Valid)
	assert.False(t, Number(doc.Get("missing")).Valid)
	assert.Zero(t, Float(doc.Get("c")))
}
