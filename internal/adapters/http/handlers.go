package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"signalhub/internal/app"
	"signalhub/internal/storage"
)

const recentLogLimit = 50

// readAPI is the thin read-only surface over state the core produces.
type readAPI struct {
	orch    *app.Orchestrator
	calllog *storage.CallLog
}

func (v *readAPI) onlineUsers(c *gin.Context) {
	names := v.orch.Presence.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		out = append(out, gin.H{"name": name, "online": true})
	}
	c.JSON(http.StatusOK, out)
}

func (v *readAPI) callLogs(c *gin.Context) {
	recs, err := v.calllog.Recent(c.Request.Context(), recentLogLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("call logs query")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch call logs"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (v *readAPI) health(c *gin.Context) {
	if err := v.calllog.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
