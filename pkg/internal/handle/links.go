package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/internal/types"
	"github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/metrics"
)

// LinkView 返回图片指定尺寸的访问地址，size 为空表示原图.
//
//	@Summary		链接视图
//	@Description	image_link 为预签名地址；expiring_link 仅在存在有效过期链接时返回；temp_link_generator 仅在套餐允许签发时返回
//	@Tags			链接
//	@Produce		json
//	@Param			id		path		string	true	"图片 UUID"
//	@Param			size	query		string	false	"缩略图高度，省略表示原图"
//	@Success		200		{object}	types.LinkViewResponse
//	@Failure		400		{object}	map[string]any
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/api/v1/images/{id}/link [get]
func LinkView(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	var q types.LinkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	resp, err := presenter(c).LinkView(c.Request.Context(), caller, c.Param("id"), q.Size)
	if err != nil {
		respondError(c, err, "link view failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// IssueLink 签发过期链接. 同一图片与尺寸只保留最新一条.
//
//	@Summary		签发过期链接
//	@Description	duration 取值 300 到 30000 秒，需要套餐开启 expiring_link
//	@Tags			链接
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"图片 UUID"
//	@Param			size	query		string					false	"缩略图高度，省略表示原图"
//	@Param			body	body		types.IssueLinkRequest	true	"有效期"
//	@Success		201		{object}	types.IssueLinkResponse
//	@Failure		400		{object}	map[string]any
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/api/v1/images/{id}/get-temporary [post]
func IssueLink(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	var q types.LinkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	var req types.IssueLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	p := presenter(c)
	id := c.Param("id")

	resp, err := p.IssueLink(c.Request.Context(), caller, id, q.Size, req.Duration)
	if err != nil {
		respondError(c, err, "issue link failed")
		return
	}

	c.Header("Location", p.URLs().LinkView(id, resp.Identifier))
	c.JSON(http.StatusCreated, resp)
}

// RedeemTemp 兑换过期链接，返回图片原始字节. 任何失败都返回空的 404.
//
//	@Summary	兑换过期链接
//	@Tags		链接
//	@Produce	image/jpeg,image/png
//	@Param		token	query	string	true	"令牌"
//	@Success	200
//	@Failure	404
//	@Router		/temp [get]
func RedeemTemp(c *gin.Context) {
	ctx := c.Request.Context()

	img, data, err := service.NewLinkService(deps(c)).Fetch(ctx, c.Query("token"))
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			log.FromContext(ctx).Error().Err(err).Msg("redeem link failed")
		}

		c.Status(http.StatusNotFound)

		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, img.ContentType, data)
	metrics.BytesServed.WithLabelValues(img.ContentType).Add(float64(len(data)))
}
