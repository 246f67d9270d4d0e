package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loangraph/portal/internal/wizard"
)

type MetaHandler struct {
	env      string
	version  string
	realtime bool
}

func NewMetaHandler(env, version string, realtime bool) *MetaHandler {
	return &MetaHandler{env: env, version: version, realtime: realtime}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	stages := make([]gin.H, 0, len(wizard.Stages()))
	for _, st := range wizard.Stages() {
		stages = append(stages, gin.H{"stage": st.String(), "title": st.Title()})
	}
	c.JSON(http.StatusOK, gin.H{
		"name":     "Loan Portal",
		"version":  h.version,
		"env":      h.env,
		"realtime": h.realtime,
		"stages":   stages,
	})
}
