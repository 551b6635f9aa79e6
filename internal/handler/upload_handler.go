package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
)

func photoPayload(p db.Photo) gin.H {
	return gin.H{
		"id":          p.ID,
		"plantId":     p.PlantID,
		"key":         p.BlobKey,
		"contentType": p.ContentType,
		"width":       p.Width,
		"height":      p.Height,
		"takenAt":     p.TakenAt,
	}
}

// UploadPhoto 处理植物照片上传请求，表单字段为 photo
func (a *API) UploadPhoto(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	ctx := c.Request.Context()
	if _, err := a.plants.GetOwned(ctx, id, currentSession(c).UserID); err != nil {
		a.handleServiceError(c, err, "failed to upload photo")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "photo file is required")
		return
	}
	if file.Size > service.MaxPhotoBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "photo is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read photo")
		return
	}
	defer src.Close()

	photo, err := a.photos.Upload(ctx, id, src)
	if err != nil {
		a.handleServiceError(c, err, "failed to upload photo")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"photo": photoPayload(*photo)})
}

// ListPhotos 按拍摄时间返回植物照片
func (a *API) ListPhotos(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid plant id")
		return
	}

	ctx := c.Request.Context()
	if _, err := a.plants.GetOwned(ctx, id, currentSession(c).UserID); err != nil {
		a.handleServiceError(c, err, "failed to list photos")
		return
	}

	photos, err := a.photos.List(ctx, id)
	if err != nil {
		a.handleServiceError(c, err, "failed to list photos")
		return
	}

	response := make([]gin.H, 0, len(photos))
	for _, p := range photos {
		response = append(response, photoPayload(p))
	}
	c.JSON(http.StatusOK, gin.H{"photos": response})
}

// ownedPhoto 读取照片并确认其植物属于当前用户
func (a *API) ownedPhoto(c *gin.Context) (*db.Photo, bool) {
	id, err := parseUintParam(c, "photoId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid photo id")
		return nil, false
	}

	ctx := c.Request.Context()
	photo, err := a.photos.Get(ctx, id)
	if err != nil {
		a.handleServiceError(c, err, "failed to load photo")
		return nil, false
	}
	if _, err := a.plants.GetOwned(ctx, photo.PlantID, currentSession(c).UserID); err != nil {
		respondError(c, http.StatusNotFound, "photo not found")
		return nil, false
	}
	return photo, true
}

// GetPhotoContent 返回照片原始内容
func (a *API) GetPhotoContent(c *gin.Context) {
	photo, ok := a.ownedPhoto(c)
	if !ok {
		return
	}

	data, err := a.photos.Read(*photo)
	if err != nil {
		a.handleServiceError(c, err, "failed to read photo")
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, photo.ContentType, data)
}

// DeletePhoto 删除照片
func (a *API) DeletePhoto(c *gin.Context) {
	photo, ok := a.ownedPhoto(c)
	if !ok {
		return
	}

	if err := a.photos.Delete(c.Request.Context(), photo.ID); err != nil {
		a.handleServiceError(c, err, "failed to delete photo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "photo deleted"})
}
