package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const dateQueryLayout = "2006-01-02"

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// dateQuery parses a YYYY-MM-DD query value. Returns the zero time when the
// parameter is absent, and ok=false only on a malformed value.
func dateQuery(c *gin.Context, key string) (time.Time, bool) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateQueryLayout, val)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
