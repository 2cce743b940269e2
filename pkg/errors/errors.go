package errors

import (
	"errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// ========== 授权错误（用户可恢复，原样返回给调用方） ==========

var (
	// ErrUnauthenticated 未登录或凭证无效
	ErrUnauthenticated = errors.New("未登录或登录已过期")

	// ErrNotAMember 不是该组织的成员
	ErrNotAMember = errors.New("您不是该组织的成员")
)

// InsufficientRoleError 角色不满足要求，携带诊断信息
type InsufficientRoleError struct {
	Required []string // 要求的角色集合
	Actual   string   // 实际角色
}

func (e *InsufficientRoleError) Error() string {
	return fmt.Sprintf("权限不足：需要角色 %v，当前角色 %s", e.Required, e.Actual)
}

// ========== 配置错误（调用方编码缺陷，必须响亮失败） ==========

var (
	// ErrMissingTenantContext 构造租户作用域存储时缺少租户ID
	ErrMissingTenantContext = errors.New("缺少租户上下文：tenantID不能为空")

	// ErrNotTenantScoped 模型不在租户数据白名单内，禁止经过作用域存储
	ErrNotTenantScoped = errors.New("模型未注册为租户数据，禁止经过租户作用域存储")
)

// ========== 竞争错误（并发审批下的预期失败） ==========

var (
	// ErrAlreadyProcessedOrMissing 条件更新影响0行：记录不存在或已处理
	ErrAlreadyProcessedOrMissing = errors.New("该记录不存在或已被处理，请刷新后重试")
)

// ========== 校验错误（写入前同步校验） ==========

// ValidationError 参数校验错误，阻止任何写入
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
