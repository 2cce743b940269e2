package handlers

import (
	"errors"
	"strconv"

	"samiti/internal/access"
	"samiti/internal/database"
	"samiti/internal/middleware"
	apperrors "samiti/pkg/errors"
	"samiti/pkg/logger"
	"samiti/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// newGate 按请求构造访问门禁。门禁和作用域存储都不允许跨请求复用。
func newGate(c *gin.Context) *access.Gate {
	return access.NewGate(database.GetDB(), middleware.NewGinResolver(c))
}

// parseTenantID 从路径参数解析组织ID
func parseTenantID(c *gin.Context) (uint, bool) {
	return parseIDParam(c, "org_id")
}

// parseIDParam 解析uint路径参数
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, name+"格式错误")
		return 0, false
	}
	return uint(id), true
}

// handleServiceError 把服务层错误翻译成统一响应。
// 授权错误原样转达；配置错误是调用方编码缺陷，响亮记录后按
// 服务器错误返回，绝不降级为"拒绝访问"；竞争错误提示刷新。
func handleServiceError(c *gin.Context, err error) {
	var roleErr *apperrors.InsufficientRoleError
	var validationErr *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, apperrors.ErrNotAMember):
		response.Forbidden(c, err.Error())
	case errors.As(err, &roleErr):
		response.Forbidden(c, roleErr.Error())
	case errors.Is(err, apperrors.ErrMissingTenantContext),
		errors.Is(err, apperrors.ErrNotTenantScoped):
		logger.GetLogger().Errorf("租户上下文缺陷: %v path=%s", err, c.FullPath())
		response.ServerError(c, "服务器内部错误")
	case errors.Is(err, apperrors.ErrAlreadyProcessedOrMissing):
		response.Conflict(c, err.Error())
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, "记录不存在")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		response.BadRequest(c, "记录已存在")
	default:
		logger.GetLogger().Errorf("请求处理失败: %v path=%s", err, c.FullPath())
		response.ServerError(c, err.Error())
	}
}
