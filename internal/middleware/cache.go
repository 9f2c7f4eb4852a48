package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	cacheHitKey      = "cache_hit"
	requestIDHeader  = "X-Request-ID"
	processingMsKey  = "processing_time_ms"
	requestIDMetaKey = "request_id"
)

// WithResponseMeta initialises response metadata storage on the request
// context. Handlers can enrich the map via SetCacheHit and read it back with
// ExtractMeta when building the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta[processingMsKey]; !exists {
			meta[processingMsKey] = time.Since(start).Milliseconds()
		}
		if requestID := c.Writer.Header().Get(requestIDHeader); requestID != "" {
			meta[requestIDMetaKey] = requestID
		}
	}
}

// SetCacheHit records whether the analysis payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata map stored on the context, or nil when the
// middleware did not run.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
