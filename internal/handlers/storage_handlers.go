package handlers

import (
	"context"
	"net/http"

	"cafe_backoffice/internal/storage"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BucketManager administers the buckets of the object store.
type BucketManager interface {
	ListBuckets(ctx context.Context) ([]storage.Bucket, error)
	CreateBucket(ctx context.Context, name string) error
	DeleteBucket(ctx context.Context, name string) error
}

type createBucketRequest struct {
	Name string `json:"name" binding:"required"`
}

// StorageHandler exposes bucket administration. A nil manager answers 503.
type StorageHandler struct {
	buckets BucketManager
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(buckets BucketManager) *StorageHandler {
	return &StorageHandler{buckets: buckets}
}

func (h *StorageHandler) available(c *gin.Context) bool {
	if h.buckets == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeUpstreamFailed,
			"Object storage is not configured", ""))
		return false
	}
	return true
}

func (h *StorageHandler) ListBuckets(c *gin.Context) {
	if !h.available(c) {
		return
	}
	buckets, err := h.buckets.ListBuckets(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "List buckets")
		return
	}
	utils.RespondOK(c, http.StatusOK, buckets)
}

func (h *StorageHandler) CreateBucket(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var req createBucketRequest
	if !bindJSON(c, &req, "CreateBucket") {
		return
	}
	if err := h.buckets.CreateBucket(c.Request.Context(), req.Name); err != nil {
		respondServiceError(c, err, "Create bucket")
		return
	}
	utils.LogInfo("Bucket created", map[string]interface{}{"bucket": req.Name})
	utils.RespondOK(c, http.StatusCreated, storage.Bucket{Name: req.Name})
}

func (h *StorageHandler) DeleteBucket(c *gin.Context) {
	if !h.available(c) {
		return
	}
	name := c.Param("name")
	if err := h.buckets.DeleteBucket(c.Request.Context(), name); err != nil {
		respondServiceError(c, err, "Delete bucket")
		return
	}
	utils.LogInfo("Bucket deleted", map[string]interface{}{"bucket": name})
	utils.RespondOK(c, http.StatusOK, gin.H{"name": name, "deleted": true})
}
