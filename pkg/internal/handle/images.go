package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/service"
)

// UploadImage 上传图片，表单字段 image.
//
//	@Summary		上传图片
//	@Description	上传 JPEG 或 PNG 图片，内容类型根据文件内容判定
//	@Tags			图片
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file				true	"图片文件"
//	@Success		201		{object}	types.ImageInfo
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]string
//	@Router			/api/v1/images [post]
func UploadImage(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"image": "is required"}})
		return
	}

	limit := int64(configs.GetConfig().Server.MaxUploadMB) << 20
	if limit > 0 && fh.Size > limit {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"image": "file too large"}})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "open upload failed")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, err, "read upload failed")
		return
	}

	ctx := c.Request.Context()

	img, err := service.NewImageService(deps(c)).Upload(ctx, caller.Username, fh.Filename, data)
	if err != nil {
		respondError(c, err, "upload image failed")
		return
	}

	p := presenter(c)
	c.Header("Location", p.URLs().Image(img.ID))
	c.JSON(http.StatusCreated, p.ImageInfo(img))
}

// ListImages 列出我的图片，staff 可见全部.
//
//	@Summary	图片列表
//	@Tags		图片
//	@Produce	json
//	@Success	200	{object}	types.ListImagesResponse
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/images [get]
func ListImages(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	resp, err := presenter(c).List(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, "list images failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetImage 图片详情，列出套餐允许的链接视图地址.
//
//	@Summary	图片详情
//	@Tags		图片
//	@Produce	json
//	@Param		id	path		string	true	"图片 UUID"
//	@Success	200	{object}	types.ImageDetailsResponse
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/images/{id} [get]
func GetImage(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	resp, err := presenter(c).Details(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err, "image details failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteImage 删除图片及其缩略图和链接.
//
//	@Summary	删除图片
//	@Tags		图片
//	@Param		id	path	string	true	"图片 UUID"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/images/{id} [delete]
func DeleteImage(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	if err := service.NewImageService(deps(c)).Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		respondError(c, err, "delete image failed")
		return
	}

	c.Status(http.StatusNoContent)
}

