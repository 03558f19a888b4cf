// Command reverify repairs identity documents whose field extraction
// failed. It sweeps the database for documents flagged extract_failed that
// still have a locally stored image, re-runs the local OCR extractor over
// them with a bounded worker pool, and writes back recovered fields. With
// -watch it keeps running and re-sweeps whenever new files land in the
// upload directory.
//
// Only the stored extraction fields are repaired; verification status is
// recomputed exclusively on a new /verify/upload submission.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"medishare/models"
	"medishare/pkg/extract"
)

var (
	dry     bool
	verbose bool
)

func main() {
	dir := flag.String("dir", "uploads/verification_uploads", "local verification upload directory to watch")
	watch := flag.Bool("watch", false, "keep running and re-sweep on new files")
	workers := flag.Int("workers", 4, "concurrent OCR workers")
	flag.BoolVar(&dry, "dry", false, "print proposed changes without writing")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	gdb := mustDBFromEnv()
	ext := &extract.TesseractExtractor{Language: os.Getenv("TESSERACT_LANG")}

	sweep(gdb, ext, *workers)
	if !*watch {
		return
	}
	if err := watchLoop(gdb, ext, *dir, *workers); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// sweep re-runs extraction for every failed document with a readable local
// image, fanning the work across a fixed pool.
func sweep(gdb *gorm.DB, ext extract.Extractor, workers int) {
	var docs []models.IdentityDocument
	if err := gdb.Where("extract_failed = ? AND local_path <> ''", true).Find(&docs).Error; err != nil {
		log.Printf("query failed docs: %v", err)
		return
	}
	if len(docs) == 0 {
		log.Println("no failed documents to retry")
		return
	}
	log.Printf("retrying extraction for %d document(s)", len(docs))

	if workers < 1 {
		workers = 1
	}
	jobs := make(chan models.IdentityDocument, len(docs))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				retryOne(gdb, ext, doc)
			}
		}()
	}
	for _, d := range docs {
		jobs <- d
	}
	close(jobs)
	wg.Wait()
}

func retryOne(gdb *gorm.DB, ext extract.Extractor, doc models.IdentityDocument) {
	data, err := os.ReadFile(doc.LocalPath)
	if err != nil {
		log.Printf("doc %d: read %s: %v", doc.ID, doc.LocalPath, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	fields, err := ext.Extract(ctx, data)
	if err != nil {
		if verbose {
			log.Printf("doc %d: extraction still failing: %v", doc.ID, err)
		}
		return
	}
	if dry {
		log.Printf("doc %d: would set name=%q dob=%q", doc.ID, fields.FullName, fields.DOB)
		return
	}
	err = gdb.Model(&models.IdentityDocument{}).Where("id = ?", doc.ID).Updates(map[string]any{
		"extracted_name": fields.FullName,
		"extracted_dob":  fields.DOB,
		"extract_failed": false,
		"failed_reason":  "",
	}).Error
	if err != nil {
		log.Printf("doc %d: update: %v", doc.ID, err)
		return
	}
	log.Printf("doc %d: recovered fields, user must resubmit to re-verify", doc.ID)
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// watchLoop re-sweeps (debounced) whenever image files are created under dir.
func watchLoop(gdb *gorm.DB, ext extract.Extractor, dir string, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	var pending bool
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				ext2 := strings.ToLower(filepath.Ext(ev.Name))
				if imageExts[ext2] {
					pending = true
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		case <-ticker.C:
			if pending {
				pending = false
				sweep(gdb, ext, workers)
			}
		}
	}
}
