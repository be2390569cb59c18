package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestUploadRoutesAreMounted(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	for _, base := range []string{"/users/{id}/uploads", "/quests/{id}/uploads"} {
		assert.Contains(t, parsed.Paths[base], "get", base)
		assert.Contains(t, parsed.Paths[base+"/{fileName}"], "get", base)
		assert.Contains(t, parsed.Paths[base+"/{fileName}"], "delete", base)
	}
	for path := range parsed.Paths {
		assert.NotContains(t, path, "{resource}")
	}
}
