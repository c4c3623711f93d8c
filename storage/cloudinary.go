package storage

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cloudinary configuration via environment variables
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)

var Media *Cloudinary

func InitializeCloudinary() {
	Media = NewCloudinaryFromEnv()
}

// Cloudinary performs signed uploads. Uploading the same public id twice
// overwrites the previous asset, which is what certificate re-issuance relies on.
type Cloudinary struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

func NewCloudinaryFromEnv() *Cloudinary {
	return &Cloudinary{
		cloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		apiKey:    os.Getenv("CLOUDINARY_API_KEY"),
		apiSecret: os.Getenv("CLOUDINARY_API_SECRET"),
		folder:    os.Getenv("CLOUDINARY_FOLDER"),
	}
}

func (c *Cloudinary) configured() bool {
	return c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// Upload sends PNG bytes to Cloudinary under the given public id and returns
// the hosted URL.
func (c *Cloudinary) Upload(publicID string, data []byte) (string, error) {
	payload := base64.StdEncoding.EncodeToString(data)
	return c.uploadDataURL("data:image/png;base64,"+payload, publicID)
}

// UploadBase64Image uploads a data-URL (or raw base64) image, used by the
// generic upload endpoint for avatars and event images.
func (c *Cloudinary) UploadBase64Image(base64ImageSrc string, publicID string) (string, error) {
	if base64ImageSrc == "" {
		return "", fmt.Errorf("empty base64 image")
	}

	payload := base64ImageSrc
	if i := strings.Index(base64ImageSrc, ","); i != -1 {
		payload = base64ImageSrc[i+1:]
	}

	return c.uploadDataURL("data:image/jpeg;base64,"+payload, publicID)
}

func (c *Cloudinary) uploadDataURL(dataURL, publicID string) (string, error) {
	if !c.configured() {
		return "", fmt.Errorf("cloudinary is not configured")
	}

	endpoint := "https://api.cloudinary.com/v1_1/" + c.cloudName + "/image/upload"

	form := url.Values{}
	form.Add("file", dataURL)
	form.Add("api_key", c.apiKey)

	finalPublicID := publicID
	if c.folder != "" {
		finalPublicID = c.folder + "/" + publicID
	}
	if finalPublicID != "" {
		form.Add("public_id", finalPublicID)
	}

	// Signed upload: signature is SHA1 over the sorted params plus the secret
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)

	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", finalPublicID, timestamp, c.apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
	form.Add("signature", signature)

	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary upload failed: status %d: %s", res.StatusCode, string(body))
	}

	var parsed struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", fmt.Errorf("cloudinary response contained no url")
}
