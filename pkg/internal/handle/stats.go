package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/service"
)

// UsageStats 用量统计. staff 可通过 ?user= 查看其他用户.
//
//	@Summary	用量统计
//	@Tags		统计
//	@Produce	json
//	@Param		user	query		string	false	"用户名，仅 staff 可用"
//	@Success	200		{object}	types.UsageStats
//	@Router		/api/v1/stats [get]
func UsageStats(c *gin.Context) {
	caller, ok := checkUser(c)
	if !ok {
		return
	}

	owner := caller.Username
	if u := c.Query("user"); u != "" && caller.Staff {
		owner = u
	}

	resp, err := service.NewStatsService(deps(c)).Usage(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "usage stats failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}
