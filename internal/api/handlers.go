// Package api is a read-only HTTP status façade. It never mutates the
// store — the TCP line protocol (internal/server) is the only write path —
// it exists so operators can inspect a running node without speaking the
// wire protocol by hand.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geomemdb/internal/cluster"
)

// Handler holds the Node this façade reports on.
type Handler struct {
	node *cluster.Node
}

// NewHandler creates a Handler.
func NewHandler(node *cluster.Node) *Handler {
	return &Handler{node: node}
}

// NewRouter builds the gin engine: a bare gin.Engine with the request
// logger and panic recovery middleware registered explicitly, rather than
// gin.Default()'s built-ins.
func NewRouter(node *cluster.Node) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(Logger(), Recovery())

	h := NewHandler(node)
	router.GET("/health", h.Health)
	router.GET("/debug/replicas", h.Replicas)
	router.GET("/debug/keys", h.Keys)

	return router
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"role":   h.node.Role().String(),
		"status": "ok",
	})
}

// Replicas handles GET /debug/replicas — the live-replica table, leader-side.
func (h *Handler) Replicas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"live_replicas": h.node.LiveReplicas(),
	})
}

// Keys handles GET /debug/keys — every key currently stored.
func (h *Handler) Keys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"keys": h.node.Keys(),
	})
}
