package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// SetCacheHit records on the response meta whether the snapshot came from
// a cache layer rather than a live upstream rebuild.
func SetCacheHit(c *gin.Context, hit bool) {
	ExtractMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns this request's response-meta map, creating it on
// first use. Handlers add timing and freshness fields before responding.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
