package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"medishare/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// medicineInput is one donated item as submitted by the client inside the
// multipart "data" JSON field.
type medicineInput struct {
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	ItemType   string `json:"itemType"`
	ExpiryDate string `json:"expiryDate"` // ISO date
	Quantity   int    `json:"quantity"`
}

func (m *medicineInput) validate() (time.Time, error) {
	if m.Name == "" {
		return time.Time{}, fmt.Errorf("medicine name is required")
	}
	if m.Quantity < 1 {
		return time.Time{}, fmt.Errorf("quantity must be a positive number")
	}
	expiry, err := parseExpiry(m.ExpiryDate)
	if err != nil {
		return time.Time{}, err
	}
	if !expiry.After(time.Now()) {
		return time.Time{}, fmt.Errorf("medicine %s has expired or invalid expiry date", m.Name)
	}
	return expiry, nil
}

func parseExpiry(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("valid expiry date is required")
}

func parseMedicinesField(c *gin.Context) ([]medicineInput, error) {
	raw := c.PostForm("data")
	if raw == "" {
		return nil, fmt.Errorf("data field is required")
	}
	var parsed struct {
		Medicines []medicineInput `json:"medicines"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON format in medicines field")
	}
	if len(parsed.Medicines) == 0 {
		return nil, fmt.Errorf("at least one medicine is required")
	}
	return parsed.Medicines, nil
}

func uploadMedicineImage(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return "", err
	}
	stored, err := images.Upload(c.Request.Context(), data, "medicines", fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	return stored.URL, nil
}

// donateHandler creates a batch of donations. Image files arrive as
// image0..imageN matching the medicines array by index; a missing image
// just leaves the URL empty.
func donateHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	meds, err := parseMedicinesField(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]models.Medicine, 0, len(meds))
	for idx, m := range meds {
		expiry, err := m.validate()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		imageURL := ""
		if fh, err := c.FormFile(fmt.Sprintf("image%d", idx)); err == nil {
			if imageURL, err = uploadMedicineImage(c, fh); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
				return
			}
		}
		entries = append(entries, models.Medicine{
			UserID:     user.ID,
			Name:       m.Name,
			Brand:      m.Brand,
			ItemType:   m.ItemType,
			ExpiryDate: expiry,
			Quantity:   m.Quantity,
			ImageURL:   imageURL,
		})
	}
	if err := db.Create(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save donations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "medicines donated successfully"})
}

// updateDonationHandler replaces a donation's fields; owner only.
func updateDonationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var donation models.Medicine
	if err := db.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	if donation.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your donation"})
		return
	}
	meds, err := parseMedicinesField(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := meds[0]
	expiry, err := m.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageURL := donation.ImageURL
	if fh, err := c.FormFile("image"); err == nil {
		if imageURL, err = uploadMedicineImage(c, fh); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}
	}

	updates := map[string]any{
		"name":        m.Name,
		"brand":       m.Brand,
		"item_type":   m.ItemType,
		"expiry_date": expiry,
		"quantity":    m.Quantity,
		"image_url":   imageURL,
	}
	if err := db.Model(&donation).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "donation updated successfully"})
}

// deleteDonationHandler removes a donation; owner only.
func deleteDonationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var donation models.Medicine
	if err := db.First(&donation, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return
	}
	if donation.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your donation"})
		return
	}
	if err := db.Delete(&donation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "donation deleted successfully"})
}

// dashboardHandler lists the caller's own donations, newest first.
func dashboardHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Medicine
	if err := db.Where("user_id = ?", user.ID).Order("created_at desc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// listAllDonationsHandler is the discovery listing for verified users,
// donor name/email included.
func listAllDonationsHandler(c *gin.Context) {
	var items []models.Medicine
	if err := db.Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	}).Order("created_at desc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
