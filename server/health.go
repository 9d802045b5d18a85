package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

type healthcheckResponse struct {
	Message string `json:"msg"`
	Env     string `json:"env"`
	Version string `json:"version,omitempty"`
}

func healthcheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, healthcheckResponse{
			Message: "bk-site operational",
			Env:     viper.GetString("ENV"),
			Version: viper.GetString("VERSION"),
		})
	}
}
