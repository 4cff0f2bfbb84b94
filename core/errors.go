package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 上下文/奖励校验错误：INVALID_CONTEXT, INVALID_REWARD
//   - 候选池错误：CANDIDATES_UNAVAILABLE, TIMEOUT
//   - 策略持久化错误：SCHEMA_MISMATCH
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_CONTEXT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "bandit", "recall"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 决策核心错误代码
	ErrorCodeInvalidContext        = "INVALID_CONTEXT"        // 上下文缺失必需信号或数值越界（调用方 bug）
	ErrorCodeInvalidReward         = "INVALID_REWARD"         // 反馈载荷数值越界，拒绝更新策略
	ErrorCodeCandidatesUnavailable = "CANDIDATES_UNAVAILABLE" // 两路召回均失败或候选池为空
	ErrorCodeSchemaMismatch        = "SCHEMA_MISMATCH"        // 持久化臂维度与当前特征维度不一致
	ErrorCodeTimeout               = "TIMEOUT"                // 外部召回服务超时
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleFeature = "feature" // 特征模块
	ModuleRecall  = "recall"  // 召回模块
	ModuleBandit  = "bandit"  // 决策模块
	ModuleReward  = "reward"  // 奖励模块
	ModulePolicy  = "policy"  // 策略持久化模块
	ModuleEngine  = "engine"  // 引擎模块
)

// NewInvalidContext 创建 INVALID_CONTEXT 错误（必需信号缺失/越界）。
// 此类错误同步返回给调用方，绝不静默取默认值。
func NewInvalidContext(message string) *DomainError {
	return NewDomainError(ModuleFeature, ErrorCodeInvalidContext, message)
}

// NewInvalidReward 创建 INVALID_REWARD 错误（反馈载荷越界）。
// 此类错误拒绝本次策略更新，用于暴露上游数据 bug。
func NewInvalidReward(message string) *DomainError {
	return NewDomainError(ModuleReward, ErrorCodeInvalidReward, message)
}

// 通用错误检查函数

func is(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return is(err, ErrorCodeNotFound) }

// IsInvalidContext 检查错误是否为 INVALID_CONTEXT
func IsInvalidContext(err error) bool { return is(err, ErrorCodeInvalidContext) }

// IsInvalidReward 检查错误是否为 INVALID_REWARD
func IsInvalidReward(err error) bool { return is(err, ErrorCodeInvalidReward) }

// IsCandidatesUnavailable 检查错误是否为 CANDIDATES_UNAVAILABLE
func IsCandidatesUnavailable(err error) bool { return is(err, ErrorCodeCandidatesUnavailable) }

// IsSchemaMismatch 检查错误是否为 SCHEMA_MISMATCH
func IsSchemaMismatch(err error) bool { return is(err, ErrorCodeSchemaMismatch) }

// IsTimeout 检查错误是否为 TIMEOUT
func IsTimeout(err error) bool { return is(err, ErrorCodeTimeout) }

// ErrCandidatesUnavailable 表示两路召回均失败或合并后候选池为空。
// 可恢复错误：调用方应回退到非个性化默认推荐，而不是让服务路径失败。
var ErrCandidatesUnavailable = NewDomainError(ModuleRecall, ErrorCodeCandidatesUnavailable, "recall: no candidates available from any source")
