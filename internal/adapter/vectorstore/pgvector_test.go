package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[0.1,0.25,-3]", vectorToString([]float32{0.1, 0.25, -3}))
	assert.Equal(t, "[]", vectorToString(nil))
}

func TestMetaString(t *testing.T) {
	md := map[string]any{"name": "Hue", "count": 3}

	assert.Equal(t, "Hue", metaString(md, "name"))
	assert.Equal(t, "", metaString(md, "missing"))
	assert.Equal(t, "", metaString(md, "count")) // non-string values render empty
	assert.Equal(t, "", metaString(nil, "name"))
}
