package rpcsvc

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getOutput(i int) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.bridge.GetOutput(c.Request.Context(), i)
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": v})
	}
}

type setBody struct {
	State bool `json:"state"`
}

func (s *Server) putOutput(i int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body setBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.bridge.SetOutput(c.Request.Context(), i, body.State); err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": body.State})
	}
}

func (s *Server) postPulse(i int) gin.HandlerFunc {
	return func(c *gin.Context) {
		long := c.Query("long") == "true"
		if err := s.bridge.Pulse(c.Request.Context(), i, long); err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pulsed": true, "long": long})
	}
}

func (s *Server) getInput(i int) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.bridge.GetInput(c.Request.Context(), i)
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": v})
	}
}
