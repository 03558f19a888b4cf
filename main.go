package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"medishare/pkg/extract"
	"medishare/pkg/imagestore"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

// Collaborators wired at boot; tests swap in stubs.
var (
	extractor extract.Extractor
	images    imagestore.Store
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./medishare migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	var err error
	extractor, err = buildExtractor()
	if err != nil {
		log.Fatalf("extractor setup: %v", err)
	}
	images, err = buildImageStore()
	if err != nil {
		log.Fatalf("image store setup: %v", err)
	}

	r := gin.Default()

	setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

// buildExtractor selects the identity-field extractor. EXTRACTOR=tesseract
// runs the local OCR pipeline; the default calls the remote vision model
// and requires GEMINI_API_KEY.
func buildExtractor() (extract.Extractor, error) {
	switch strings.ToLower(os.Getenv("EXTRACTOR")) {
	case "tesseract":
		return &extract.TesseractExtractor{Language: os.Getenv("TESSERACT_LANG")}, nil
	case "", "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set (or set EXTRACTOR=tesseract)")
		}
		return extract.NewGeminiExtractor(key, os.Getenv("GEMINI_MODEL")), nil
	default:
		return nil, fmt.Errorf("unknown EXTRACTOR %q", os.Getenv("EXTRACTOR"))
	}
}

// buildImageStore selects where uploaded images live. IMAGE_STORE=s3 uses an
// S3-compatible host; the default writes under UPLOAD_BASE on disk.
func buildImageStore() (imagestore.Store, error) {
	switch strings.ToLower(os.Getenv("IMAGE_STORE")) {
	case "s3":
		return imagestore.NewS3Store(context.Background(), imagestore.S3Config{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Region:        os.Getenv("S3_REGION"),
			Bucket:        os.Getenv("S3_BUCKET"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		})
	case "", "local":
		return imagestore.NewDiskStore(uploadBaseDir()), nil
	default:
		return nil, fmt.Errorf("unknown IMAGE_STORE %q", os.Getenv("IMAGE_STORE"))
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
