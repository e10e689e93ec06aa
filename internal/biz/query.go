package biz

import (
	"context"
	"errors"
	"fmt"
)

// FilterOp 过滤操作符，对应行存储的过滤语法。
type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpILike FilterOp = "ilike" // 大小写不敏感的模式匹配，值已做 LIKE 转义
	OpCS    FilterOp = "cs"    // 数组包含元素
	OpIn    FilterOp = "in"
)

// CountMode 总数统计方式。
type CountMode string

const (
	CountNone        CountMode = ""
	CountExact       CountMode = "exact"
	CountApproximate CountMode = "approximate"
)

type Filter struct {
	Column string
	Op     FilterOp
	Value  any // OpIn 时为 []string
}

// OrGroup 单层 OR 子句，组内任一条件满足即可；不允许嵌套。
type OrGroup []Filter

type Order struct {
	Column string
	Desc   bool
}

// Range 闭区间 [From, To]，从 0 开始。
type Range struct {
	From int
	To   int
}

func (r Range) Limit() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// Query 一次行存储查询的完整描述。
type Query struct {
	Table   string
	Select  []string
	Filters []Filter
	Or      []OrGroup
	Order   []Order
	Range   *Range
	Count   CountMode
}

// Row 原始行，列名到值。
type Row map[string]any

type RowSet struct {
	Rows  []Row
	Count *int64 // 未请求或无法估算时为 nil
}

// RowStore 关系型存储的唯一查询入口。
type RowStore interface {
	Query(ctx context.Context, q *Query) (*RowSet, error)
}

// StoreErrorCode 后端错误分类。
type StoreErrorCode string

const (
	CodeStatementTimeout StoreErrorCode = "statement_timeout"
	CodeServerError      StoreErrorCode = "server_error"
	CodePermanent        StoreErrorCode = "permanent"
)

// StoreError 行存储返回的分类错误。
type StoreError struct {
	Code        StoreErrorCode
	BackendCode string // 原始错误码，如 SQLSTATE 57014
	Message     string
	Err         error
}

func (e *StoreError) Error() string {
	if e.BackendCode != "" {
		return fmt.Sprintf("store %s (%s): %s", e.Code, e.BackendCode, e.Message)
	}
	return fmt.Sprintf("store %s: %s", e.Code, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Transient 超时、取消与服务端故障可以换一种计数方式重试。
func (e *StoreError) Transient() bool {
	return e.Code == CodeStatementTimeout || e.Code == CodeServerError
}

// IsTransient 判断错误链中是否有可恢复的存储错误。
func IsTransient(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return false
}
