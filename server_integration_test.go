package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"medishare/pkg/extract"
	"medishare/pkg/imagestore"
)

// stubExtractor maps image bytes to canned fields so verification outcomes
// are deterministic. Unknown content fails extraction.
type stubExtractor struct {
	byContent map[string]extract.Fields
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte) (extract.Fields, error) {
	if f, ok := s.byContent[string(image)]; ok {
		return f, nil
	}
	return extract.Fields{}, extract.ErrNoFields
}

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// multipartBody builds a form with string fields and file parts.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for name, content := range files {
		fw, err := w.CreateFormFile(name, name+".jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(content)
	}
	_ = w.Close()
	return buf, w.FormDataContentType()
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	initDB()
	tmp := t.TempDir()
	images = imagestore.NewDiskStore(tmp)
	extractor = &stubExtractor{byContent: map[string]extract.Fields{
		"gid-jane":  {FullName: "Jane Doe", DOB: "01-01-1990"},
		"pid-jane":  {FullName: "jane doe", DOB: "01-01-1990"},
		"gid-wrong": {FullName: "John Smith", DOB: "01-01-1990"},
	}}
	r := gin.Default()
	setupRoutes(r)
	return r
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json body %q: %v", rec.Body.String(), err)
	}
	return out
}

func verifyAndStatus(t *testing.T, r *gin.Engine, token string, files map[string][]byte) (int, bool) {
	t.Helper()
	body, ct := multipartBody(t, nil, files)
	rec := performRequest(r, http.MethodPost, "/verify/upload", body, token, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify upload failed status=%d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON(t, rec)
	status, _ := resp["verificationStatus"].(float64)
	verified, _ := resp["verified"].(bool)
	return int(status), verified
}

func TestVerificationAndDonationFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Sign up and log in (fresh email per run so state assertions hold)
	email := fmt.Sprintf("jane+%d@example.com", time.Now().UnixNano())
	regBody, _ := json.Marshal(map[string]string{"name": "Jane Doe", "email": email, "password": "passw0rd"})
	rec := performRequest(r, http.MethodPost, "/users/signup", bytes.NewReader(regBody), "", "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed status=%d body=%s", rec.Code, rec.Body.String())
	}
	loginBody, _ := json.Marshal(map[string]string{"email": email, "password": "passw0rd"})
	rec = performRequest(r, http.MethodPost, "/users/login", bytes.NewReader(loginBody), "", "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", rec.Code, rec.Body.String())
	}
	token, _ := decodeJSON(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("empty token in login response")
	}

	// 2. Verification before profile setup is a 404
	body, ct := multipartBody(t, nil, map[string][]byte{"gidFront": []byte("gid-jane")})
	if rec = performRequest(r, http.MethodPost, "/verify/upload", body, token, ct); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before profile setup, got %d", rec.Code)
	}

	// 3. Create the profile; dob is stored as dd-mm-yyyy
	body, ct = multipartBody(t, map[string]string{"dob": "1990-01-01", "city": "Springfield"}, nil)
	if rec = performRequest(r, http.MethodPost, "/users/profile", body, token, ct); rec.Code != http.StatusOK {
		t.Fatalf("profile save failed status=%d body=%s", rec.Code, rec.Body.String())
	}

	// 4. Donations are gated until verified
	donBody, donCT := donationForm(t)
	if rec = performRequest(r, http.MethodPost, "/medicines/donate", donBody, token, donCT); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before verification, got %d", rec.Code)
	}

	// 5. First submission without gidFront is a validation error
	body, ct = multipartBody(t, nil, map[string][]byte{"pidFront": []byte("pid-jane")})
	if rec = performRequest(r, http.MethodPost, "/verify/upload", body, token, ct); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without gidFront, got %d body=%s", rec.Code, rec.Body.String())
	}

	// 6. Matching gidFront reaches partial even though pidBack extraction fails
	status, verified := verifyAndStatus(t, r, token, map[string][]byte{
		"gidFront": []byte("gid-jane"),
		"pidBack":  []byte("unreadable"),
	})
	if status != 1 || !verified {
		t.Fatalf("expected status 1 verified, got %d/%v", status, verified)
	}

	// 7. Projection agrees
	rec = performRequest(r, http.MethodGet, "/users/profile-status", nil, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile-status failed: %d", rec.Code)
	}
	if st, _ := decodeJSON(t, rec)["verificationStatus"].(float64); int(st) != 1 {
		t.Fatalf("projection status = %v, want 1", st)
	}

	// 8. A later pidFront-only submission upgrades to full using the stored GID
	status, verified = verifyAndStatus(t, r, token, map[string][]byte{"pidFront": []byte("pid-jane")})
	if status != 2 || !verified {
		t.Fatalf("expected status 2 verified, got %d/%v", status, verified)
	}

	// 9. Donation flow now passes the gate
	donBody, donCT = donationForm(t)
	if rec = performRequest(r, http.MethodPost, "/medicines/donate", donBody, token, donCT); rec.Code != http.StatusOK {
		t.Fatalf("donate failed status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = performRequest(r, http.MethodGet, "/medicines/dashboard", nil, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard failed: %d", rec.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil || len(items) == 0 {
		t.Fatalf("dashboard empty or invalid: %s", rec.Body.String())
	}
	rec = performRequest(r, http.MethodGet, "/medicines/all", nil, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("discovery listing failed: %d", rec.Code)
	}

	// 10. Mismatched resubmission demotes all the way back to unverified
	status, verified = verifyAndStatus(t, r, token, map[string][]byte{"gidFront": []byte("gid-wrong")})
	if status != 0 || verified {
		t.Fatalf("expected demotion to 0, got %d/%v", status, verified)
	}
	donBody, donCT = donationForm(t)
	if rec = performRequest(r, http.MethodPost, "/medicines/donate", donBody, token, donCT); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion, got %d", rec.Code)
	}

	// 11. Unreadable gidFront resolves to unverified with a distinct message
	body, ct = multipartBody(t, nil, map[string][]byte{"gidFront": []byte("unreadable")})
	rec = performRequest(r, http.MethodPost, "/verify/upload", body, token, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("unreadable gid submission status=%d", rec.Code)
	}
	resp := decodeJSON(t, rec)
	if st, _ := resp["verificationStatus"].(float64); int(st) != 0 {
		t.Fatalf("expected status 0 for unreadable gid, got %v", st)
	}
	if msg, _ := resp["message"].(string); msg == "Verification complete" {
		t.Fatalf("expected a could-not-read message, got %q", msg)
	}
}

func donationForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	data := `{"medicines":[{"name":"Paracetamol","brand":"Acme","itemType":"tablet","expiryDate":"2031-05-01","quantity":3}]}`
	return multipartBodyPair(t, data)
}

func multipartBodyPair(t *testing.T, data string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	_ = w.WriteField("data", data)
	fw, err := w.CreateFormFile("image0", "med.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(fw, "fake-medicine-image")
	_ = w.Close()
	return buf, w.FormDataContentType()
}
