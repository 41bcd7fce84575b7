package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// errEmptyBody is returned when a request that needs a body has none
var errEmptyBody = errors.New("corpo da requisição vazio")

// BindNestedOrFlat binds the request body to obj. The payload may be wrapped
// under any of keys (e.g. {"action": {...}} or {"acao": {...}}) or sent flat.
// Older form clients send the wrapped shape, newer ones send it flat.
func BindNestedOrFlat(c *gin.Context, obj interface{}, keys ...string) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	// Restore body for subsequent reads
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return errEmptyBody
	}

	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		for _, key := range keys {
			if val, ok := nestedMap[key]; ok {
				return json.Unmarshal(val, obj)
			}
		}
	}

	return json.Unmarshal(bodyBytes, obj)
}
