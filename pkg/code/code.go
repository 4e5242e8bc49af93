package code

import (
	"fmt"
	"net/http"
)

// Code is a numbered, bilingual result tag shared by services and handlers.
// Code 是服务层与路由层共享的带编号双语结果标识
//
// Package level codes are templates: WithData / WithDetails return a copy,
// so concurrent requests never observe each other's payloads.
// 包级 Code 仅作为模板：WithData / WithDetails 返回副本，并发请求之间互不影响
type Code struct {
	// 状态码
	code int
	// 状态
	status bool
	// 错误消息
	Lang lang
	// 数据
	data interface{}
	// 是否含有Data
	haveData bool
	// 错误详细信息
	details []string
	// 是否含有详情
	haveDetails bool
}

var codes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers a failure code, panics on duplicate numbers
// NewError 注册失败码，编号重复时 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.en
	return &Code{code: code, status: false, Lang: l}
}

// NewSuss registers a success code
// NewSuss 注册成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.en
	return &Code{code: code, status: true, Lang: l}
}

func (e *Code) copy() *Code {
	c := *e
	if e.details != nil {
		c.details = append([]string(nil), e.details...)
	}
	return &c
}

func (e *Code) Error() string {
	if e.haveDetails && len(e.details) > 0 {
		return fmt.Sprintf("%s: %v", e.Lang.en, e.details)
	}
	return e.Lang.en
}

// Is matches on the numeric code so errors.Is works across copies
// Is 按编号匹配，使 errors.Is 能识别同一 Code 的不同副本
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	if !ok || t == nil {
		return false
	}
	return t.code == e.code
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

// Msg 返回当前语言的消息
func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

// WithData 返回携带数据的副本
func (e *Code) WithData(data interface{}) *Code {
	c := e.copy()
	c.haveData = true
	c.data = data
	return c
}

// WithDetails 返回携带详情的副本
func (e *Code) WithDetails(details ...string) *Code {
	c := e.copy()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// StatusCode 业务错误统一走 200，由 code 字段区分
func (e *Code) StatusCode() int {
	return http.StatusOK
}
