package main

import (
	"net/http"

	"medishare/models"

	"github.com/gin-gonic/gin"
)

// adminListUsersHandler returns every account with its verification state
// for the moderation panel.
func adminListUsersHandler(c *gin.Context) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		var p models.Profile
		status := models.StatusUnverified
		if err := db.Where("user_id = ?", u.ID).First(&p).Error; err == nil {
			status = p.VerificationStatus
		}
		out = append(out, gin.H{
			"id":                 u.ID,
			"name":               u.Name,
			"email":              u.Email,
			"status":             u.Status,
			"verificationStatus": status,
			"createdAt":          u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// adminSetUserStatusHandler blocks or reinstates an account. Blocked users
// cannot log in or refresh tokens.
func adminSetUserStatusHandler(c *gin.Context) {
	var req struct {
		Status *int `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Status != models.UserBlocked && *req.Status != models.UserActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 0 (blocked) or 1 (active)"})
		return
	}
	var user models.User
	if err := db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := db.Model(&user).Update("status", *req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user status updated"})
}
