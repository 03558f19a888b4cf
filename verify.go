package main

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"medishare/models"
	"medishare/pkg/extract"
	"medishare/pkg/imagestore"
	"medishare/pkg/verify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// externalCallTimeout bounds each store/extract round trip so a hung
// upstream cannot pin request-handling capacity.
const externalCallTimeout = 30 * time.Second

const verificationFolder = "verification_uploads"

// processedImage is the fan-in result for one uploaded document side.
type processedImage struct {
	stored     imagestore.Stored
	fields     extract.Fields
	extractErr error
	storeErr   error
}

// verifyUploadHandler drives one verification submission: store and extract
// every supplied image concurrently, upsert the GID/PID records, compare
// extracted fields against the declared profile and persist the recomputed
// status. The whole pass is synchronous; every submission resolves to
// status 0, 1 or 2.
func verifyUploadHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "profile not found; complete profile setup first"})
		return
	}

	files := map[string]*multipart.FileHeader{}
	for _, field := range []string{"pidFront", "pidBack", "gidFront", "gidBack"} {
		if fh, err := c.FormFile(field); err == nil {
			files[field] = fh
		}
	}
	if files["gidFront"] == nil {
		// a resubmission may rely on the stored government document; only a
		// first-time submission must carry the front image
		var existing models.IdentityDocument
		if err := db.Where("user_id = ? AND kind = ?", user.ID, models.DocGovernmentID).
			First(&existing).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "gidFront image is required"})
			return
		}
	}

	// fan-out: the uploads are independent, so store+extract runs
	// concurrently per image; record writes wait for all of them
	results := map[string]*processedImage{}
	var wg sync.WaitGroup
	var mu sync.Mutex
	for field, fh := range files {
		wg.Add(1)
		go func(field string, fh *multipart.FileHeader) {
			defer wg.Done()
			res := processOneImage(c.Request.Context(), fh)
			mu.Lock()
			results[field] = res
			mu.Unlock()
		}(field, fh)
	}
	wg.Wait()

	for _, res := range results {
		if res.storeErr != nil {
			// storage failure aborts the whole submission; nothing was
			// persisted yet so the previous attempt stays authoritative
			c.JSON(http.StatusBadGateway, gin.H{"message": "image upload failed", "error": res.storeErr.Error()})
			return
		}
	}

	var outcome verify.Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		gid, err := upsertIdentityDocument(tx, user.ID, models.DocGovernmentID, results["gidFront"], results["gidBack"])
		if err != nil {
			return err
		}
		var pid *models.IdentityDocument
		if results["pidFront"] != nil || results["pidBack"] != nil {
			if pid, err = upsertIdentityDocument(tx, user.ID, models.DocPersonalID, results["pidFront"], results["pidBack"]); err != nil {
				return err
			}
		} else {
			// a previously stored personal document still counts toward full
			// verification; its fields are re-evaluated, not ratcheted
			var existing models.IdentityDocument
			if err := tx.Where("user_id = ? AND kind = ?", user.ID, models.DocPersonalID).
				First(&existing).Error; err == nil {
				pid = &existing
			}
		}

		outcome = verify.Evaluate(user.Name, profile.DOB, documentFields(gid), documentFields(pid))
		return tx.Model(&profile).Updates(map[string]any{
			"verification_status": outcome.Status,
			"verified":            outcome.Verified,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "verification failed", "error": err.Error()})
		return
	}

	msg := "Verification complete"
	if res := results["gidFront"]; res != nil && res.extractErr != nil {
		// not a request failure: the comparison already resolved to
		// unverified, but tell the caller the document was unreadable
		// rather than merely mismatched
		msg = "Verification complete; government ID could not be read"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            msg,
		"verificationStatus": outcome.Status,
		"verified":           outcome.Verified,
	})
}

// processOneImage stores one uploaded image and runs field extraction on it.
// An extraction failure is recorded, never fatal; a storage failure is.
func processOneImage(parent context.Context, fh *multipart.FileHeader) *processedImage {
	res := &processedImage{}
	f, err := fh.Open()
	if err != nil {
		res.storeErr = err
		return res
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		res.storeErr = err
		return res
	}

	ctx, cancel := context.WithTimeout(parent, externalCallTimeout)
	res.stored, res.storeErr = images.Upload(ctx, data, verificationFolder, fh.Filename, fh.Header.Get("Content-Type"))
	cancel()
	if res.storeErr != nil {
		return res
	}

	ctx, cancel = context.WithTimeout(parent, externalCallTimeout)
	res.fields, res.extractErr = extractor.Extract(ctx, data)
	cancel()
	return res
}

// upsertIdentityDocument creates or overwrites the user's document of the
// given kind from the sides supplied in this submission. Unsupplied sides
// keep their stored values; extraction fields follow the front image. No
// history is kept.
func upsertIdentityDocument(tx *gorm.DB, userID uint, kind string, front, back *processedImage) (*models.IdentityDocument, error) {
	var doc models.IdentityDocument
	err := tx.Where("user_id = ? AND kind = ?", userID, kind).First(&doc).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		doc = models.IdentityDocument{UserID: userID, Kind: kind}
	}
	if front != nil {
		doc.FrontURL = front.stored.URL
		doc.LocalPath = front.stored.LocalPath
		if front.extractErr != nil {
			doc.ExtractedName = ""
			doc.ExtractedDOB = ""
			doc.ExtractFailed = true
			doc.FailedReason = front.extractErr.Error()
		} else {
			doc.ExtractedName = front.fields.FullName
			doc.ExtractedDOB = front.fields.DOB
			doc.ExtractFailed = false
			doc.FailedReason = ""
		}
	}
	if back != nil {
		// back extraction results are stored only through the front; the
		// back image itself is kept for review
		doc.BackURL = back.stored.URL
	}
	if err := tx.Save(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// documentFields exposes a record's extracted pair to the comparison, or
// nil when the record is absent or extraction left either field empty.
// Empty strings must never reach the comparison: they could falsely match
// an empty profile field.
func documentFields(doc *models.IdentityDocument) *extract.Fields {
	if doc == nil || doc.ExtractedName == "" || doc.ExtractedDOB == "" {
		return nil
	}
	return &extract.Fields{FullName: doc.ExtractedName, DOB: doc.ExtractedDOB}
}
