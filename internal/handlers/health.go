package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/pkg/response"
)

// Health returns a status payload useful for readiness checks. When a database
// handle is supplied the connection is pinged as part of the check.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(requestContext(c))
			}
			if err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, response.Response{
			Success: code == http.StatusOK,
			Data:    gin.H{"status": status},
		})
	}
}
