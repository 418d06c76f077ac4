package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/cache"
	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
	"github.com/yeisme/imagevault/pkg/internal/types"
	"github.com/yeisme/imagevault/pkg/log"
)

// PlansCacheNamespace 套餐列表响应缓存的命名空间.
const PlansCacheNamespace = "resp:plans"

// PlansCache 套餐列表的响应缓存，store 为 nil 时缓存不生效.
func PlansCache(store kv.KVStore) *cache.Cache {
	return cache.New(store, PlansCacheNamespace)
}

// invalidatePlans 套餐变更后清除列表缓存.
func invalidatePlans(c *gin.Context) {
	if err := PlansCache(deps(c).KV).Clear(c.Request.Context()); err != nil {
		log.FromContext(c.Request.Context()).Warn().Err(err).Msg("invalidate plans cache failed")
	}
}

// ListPlans 列出套餐.
//
//	@Summary	套餐列表
//	@Tags		套餐
//	@Produce	json
//	@Success	200	{object}	types.ListPlansResponse
//	@Router		/api/v1/plans [get]
func ListPlans(c *gin.Context) {
	plans, err := service.NewPlanService(deps(c)).List(c.Request.Context())
	if err != nil {
		respondError(c, err, "list plans failed")
		return
	}

	resp := types.ListPlansResponse{Plans: make([]types.PlanInfo, 0, len(plans))}
	for i := range plans {
		resp.Plans = append(resp.Plans, service.ToPlanInfo(&plans[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// CreatePlan 新建套餐，仅 admin.
//
//	@Summary	新建套餐
//	@Tags		套餐
//	@Accept		json
//	@Produce	json
//	@Param		body	body		types.PlanRequest	true	"套餐"
//	@Success	201		{object}	types.PlanInfo
//	@Failure	400		{object}	map[string]any
//	@Router		/api/v1/plans [post]
func CreatePlan(c *gin.Context) {
	var req types.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	plan, err := service.NewPlanService(deps(c)).Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "create plan failed")
		return
	}

	invalidatePlans(c)
	c.JSON(http.StatusCreated, service.ToPlanInfo(plan))
}

// UpdatePlan 修改套餐，仅 admin.
//
//	@Summary	修改套餐
//	@Tags		套餐
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"套餐 ID"
//	@Param		body	body		types.PlanRequest	true	"套餐"
//	@Success	200		{object}	types.PlanInfo
//	@Failure	400		{object}	map[string]any
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/plans/{id} [put]
func UpdatePlan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, service.ErrNotFound, "invalid plan id")
		return
	}

	var req types.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	plan, err := service.NewPlanService(deps(c)).Update(c.Request.Context(), uint(id), &req)
	if err != nil {
		respondError(c, err, "update plan failed")
		return
	}

	invalidatePlans(c)
	c.JSON(http.StatusOK, service.ToPlanInfo(plan))
}

// AssignTier 修改用户等级，仅 admin.
//
//	@Summary	修改用户等级
//	@Tags		套餐
//	@Accept		json
//	@Produce	json
//	@Param		username	path		string					true	"用户名"
//	@Param		body		body		types.AssignTierRequest	true	"套餐名称"
//	@Success	200			{object}	types.PlanInfo
//	@Failure	400			{object}	map[string]any
//	@Router		/api/v1/tiers/{username} [put]
func AssignTier(c *gin.Context) {
	var req types.AssignTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tier, err := service.NewPlanService(deps(c)).AssignPlan(c.Request.Context(), c.Param("username"), req.Plan)
	if err != nil {
		respondError(c, err, "assign tier failed")
		return
	}

	c.JSON(http.StatusOK, service.ToPlanInfo(&tier.Plan))
}
