package canonical_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterauth/internal/autherr"
	"betterauth/internal/protocol/canonical"
)

type inner struct {
	Nonce string `json:"nonce"`
}

type payload struct {
	Access  inner          `json:"access"`
	Request map[string]any `json:"request"`
}

func TestCompose_DeterministicAcrossMapOrder(t *testing.T) {
	a := payload{Access: inner{"0Aabc"}, Request: map[string]any{"foo": "bar", "bar": "foo", "n": 1}}
	b := payload{Access: inner{"0Aabc"}, Request: map[string]any{"n": 1, "bar": "foo", "foo": "bar"}}

	ba, err := canonical.Compose(a)
	require.NoError(t, err)
	bb, err := canonical.Compose(b)
	require.NoError(t, err)

	assert.Equal(t, ba, bb)
	assert.Equal(t, `{"access":{"nonce":"0Aabc"},"request":{"bar":"foo","foo":"bar","n":1}}`, string(ba))
}

func TestCompose_NoHTMLEscaping(t *testing.T) {
	b, err := canonical.Compose(map[string]string{"q": "a<b&c>"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b&c>"}`, string(b))
}

func TestCompose_NonFiniteIsSerializationError(t *testing.T) {
	_, err := canonical.Compose(map[string]float64{"x": math.Inf(1)})
	require.Error(t, err)
	assert.True(t, autherr.Is(err, autherr.KindSerialization))

	_, err = canonical.Compose(map[string]float64{"x": math.NaN()})
	assert.True(t, autherr.Is(err, autherr.KindSerialization))
}
