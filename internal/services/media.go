package services

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	BucketHostels    = "hostels"
	BucketDocuments  = "documents"
	BucketReceipts   = "receipts"
	BucketComplaints = "complaints"
)

const (
	MediaImage    = "IMAGE"
	MediaDocument = "DOCUMENT"
)

const sniffLen = 3072

// bucketAccepts lists the detected MIME prefixes each bucket stores.
var bucketAccepts = map[string][]string{
	BucketHostels:    {"image/"},
	BucketComplaints: {"image/"},
	BucketReceipts:   {"image/", "application/pdf"},
	BucketDocuments:  {"image/", "application/pdf"},
}

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SniffContentType detects the real type of body from its leading bytes and
// returns a reader that still yields the whole stream.
func SniffContentType(body io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	mtype := mimetype.Detect(head)
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]
	return contentType, io.MultiReader(bytes.NewReader(head), body), nil
}

func bucketAllows(bucket, contentType string) bool {
	for _, prefix := range bucketAccepts[bucket] {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// SaveMediaAsset stores body on disk under bucket and records it in
// media_assets. The declared content type is ignored in favour of the sniffed one.
func SaveMediaAsset(db *sqlx.DB, basePath, bucket, filename, ownerID string, body io.Reader) (string, error) {
	contentType, body, err := SniffContentType(body)
	if err != nil {
		return "", err
	}
	if !bucketAllows(bucket, contentType) {
		return "", ErrBadRequest("Unsupported file type " + contentType)
	}
	mediaType := MediaImage
	if !strings.HasPrefix(contentType, "image/") {
		mediaType = MediaDocument
	}

	assetID := uuid.NewString()
	storageKey := assetID
	bucketPath, err := EnsureStoragePath(basePath, bucket)
	if err != nil {
		return "", err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", ErrBadRequest("File is empty")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}
	var name *string
	if filename = strings.TrimSpace(filepath.Base(filename)); filename != "" && filename != "." {
		name = &filename
	}
	_, err = db.Exec(`
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, type, content_type, size_bytes, sha256, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, assetID, owner, bucket, storageKey, name, mediaType, contentType, size, sha, time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return "", err
	}
	return assetID, nil
}

// PublicBucket reports whether assets in bucket may be served without a token.
// Only hostel photos are public.
func PublicBucket(bucket string) bool {
	return bucket == BucketHostels
}

func BuildAssetURL(baseURL, bucket, assetID string) string {
	prefix := "/api/media/private/"
	if PublicBucket(bucket) {
		prefix = "/api/media/assets/"
	}
	return strings.TrimRight(baseURL, "/") + prefix + assetID + "/content"
}

type assetAccess int

const (
	accessDenied assetAccess = iota
	accessGranted
	accessHostelOwner
)

// classifyAccess decides what it can without the database. accessHostelOwner
// means the caller may view the asset only if they own the related hostel.
func classifyAccess(asset models.MediaAsset, userID string, roles []string) assetAccess {
	if PublicBucket(asset.Bucket) {
		return accessGranted
	}
	if asset.OwnerUserID != nil && *asset.OwnerUserID == userID {
		return accessGranted
	}
	owner := false
	for _, role := range roles {
		switch NormalizeRoleName(role) {
		case models.RoleAdmin:
			return accessGranted
		case models.RoleOwner:
			owner = true
		}
	}
	if owner && (asset.Bucket == BucketReceipts || asset.Bucket == BucketComplaints) {
		return accessHostelOwner
	}
	return accessDenied
}

// CanViewAsset allows the uploader and admins. Hostel owners may also see the
// receipts of students admitted to their hostels and the images attached to
// complaints filed against them.
func CanViewAsset(db *sqlx.DB, asset models.MediaAsset, userID string, roles []string) (bool, error) {
	switch classifyAccess(asset, userID, roles) {
	case accessGranted:
		return true, nil
	case accessDenied:
		return false, nil
	}
	var query string
	switch asset.Bucket {
	case BucketReceipts:
		query = `
SELECT EXISTS (
  SELECT 1 FROM students s JOIN hostels h ON h.id = s.admitted_hostel_id
  WHERE s.admission_receipt_media_id = $1 AND h.owner_id = $2
)`
	case BucketComplaints:
		query = `
SELECT EXISTS (
  SELECT 1 FROM complaint_images ci
  JOIN complaints c ON c.id = ci.complaint_id
  JOIN hostels h ON h.id = c.hostel_id
  WHERE ci.media_id = $1 AND h.owner_id = $2
)`
	default:
		return false, nil
	}
	var ok bool
	if err := db.Get(&ok, query, asset.ID, userID); err != nil {
		return false, err
	}
	return ok, nil
}

func GetMediaAsset(db *sqlx.DB, assetID string) (models.MediaAsset, error) {
	asset := models.MediaAsset{}
	err := db.Get(&asset, `
SELECT id, owner_user_id, bucket, storage_key, filename, type, content_type, size_bytes, sha256, created_at
FROM media_assets WHERE id = $1
`, assetID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaAsset{}, ErrNotFound("Media not found")
	}
	return asset, err
}

func AssetPath(basePath string, asset models.MediaAsset) string {
	return filepath.Join(basePath, asset.Bucket, asset.StorageKey)
}

// LoadImage reads an asset into the inline base64 form used by photo endpoints.
func LoadImage(db *sqlx.DB, basePath, assetID string) (models.Image, error) {
	asset, err := GetMediaAsset(db, assetID)
	if err != nil {
		return models.Image{}, err
	}
	raw, err := os.ReadFile(AssetPath(basePath, asset))
	if err != nil {
		return models.Image{}, err
	}
	return models.Image{ContentType: asset.ContentType, Data: base64.StdEncoding.EncodeToString(raw)}, nil
}

func DeleteAsset(db *sqlx.DB, basePath string, assetID string) error {
	asset, err := GetMediaAsset(db, assetID)
	if err != nil {
		if _, ok := AsServiceError(err); ok {
			return nil
		}
		return err
	}
	if _, err := db.Exec(`DELETE FROM media_assets WHERE id = $1`, assetID); err != nil {
		return err
	}
	_ = os.Remove(AssetPath(basePath, asset))
	return nil
}
