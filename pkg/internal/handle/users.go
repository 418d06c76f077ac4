package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/internal/types"
)

// APIRoot API 入口，列出用户与图片集合的地址.
//
//	@Summary	API 根路径
//	@Tags		其它
//	@Produce	json
//	@Success	200	{object}	types.APIRootResponse
//	@Router		/ [get]
func APIRoot(c *gin.Context) {
	c.JSON(http.StatusOK, presenter(c).Root())
}

// ListUsers 列出全部用户，仅 staff.
//
//	@Summary	用户列表
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	types.ListUsersResponse
//	@Failure	403	{object}	map[string]string
//	@Router		/api/v1/users [get]
func ListUsers(c *gin.Context) {
	users, err := service.NewUserService(deps(c)).List(c.Request.Context())
	if err != nil {
		respondError(c, err, "list users failed")
		return
	}

	p := presenter(c)
	resp := types.ListUsersResponse{Users: make([]types.UserInfo, 0, len(users))}

	for i := range users {
		resp.Users = append(resp.Users, p.UserInfo(&users[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// Me 当前用户信息，首次访问时绑定默认套餐.
//
//	@Summary	当前用户
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	types.UserInfo
//	@Failure	401	{object}	map[string]string
//	@Router		/api/v1/users/me [get]
func Me(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	writeUser(c, caller.Username)
}

// GetUser 查看用户信息，staff 或本人.
//
//	@Summary	用户详情
//	@Tags		用户
//	@Produce	json
//	@Param		username	path		string	true	"用户名"
//	@Success	200			{object}	types.UserInfo
//	@Failure	404			{object}	map[string]string
//	@Router		/api/v1/users/{username} [get]
func GetUser(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	username := c.Param("username")
	if username != caller.Username && !caller.Staff {
		respondError(c, service.ErrNotFound, "get user")
		return
	}

	sum, err := service.NewUserService(deps(c)).Get(c.Request.Context(), username)
	if err != nil {
		respondError(c, err, "get user failed")
		return
	}

	c.JSON(http.StatusOK, presenter(c).UserInfo(sum))
}

// DeleteUser 删除用户及其等级、图片，仅 admin.
//
//	@Summary	删除用户
//	@Tags		用户
//	@Param		username	path	string	true	"用户名"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/users/{username} [delete]
func DeleteUser(c *gin.Context) {
	if err := service.NewUserService(deps(c)).Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err, "delete user failed")
		return
	}

	c.Status(http.StatusNoContent)
}

func writeUser(c *gin.Context, username string) {
	ctx := c.Request.Context()
	d := deps(c)

	// 保证等级存在，响应中才有套餐名称
	if _, err := service.NewPlanService(d).TierFor(ctx, username); err != nil {
		respondError(c, err, "load tier failed")
		return
	}

	sum, err := service.NewUserService(d).Get(ctx, username)
	if err != nil {
		respondError(c, err, "get user failed")
		return
	}

	c.JSON(http.StatusOK, presenter(c).UserInfo(sum))
}
