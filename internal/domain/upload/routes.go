package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers upload routes under the protected group.
// All routes require authentication.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("", h.Upload)
		uploads.POST("/validate", h.Validate)
		uploads.GET("", h.ListMy)
		uploads.GET("/:id", h.GetByID)
		uploads.DELETE("/:id", h.Delete)
	}
}

// RegisterAdminRoutes registers maintenance routes; the group must be
// restricted to admins.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.DELETE("/uploads/files", h.RemoveStored)
}
