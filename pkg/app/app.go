package app

import (
	"strings"

	"github.com/medref/revision-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo 构建版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// Res 成功与失败共用的响应信封
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Response 绑定到单个请求的响应写出器
type Response struct {
	Ctx *gin.Context
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{Ctx: ctx}
}

// envelope 由业务码生成响应信封，多条详情以逗号拼接
func envelope(c *code.Code) Res {
	res := Res{
		Code:    c.Code(),
		Status:  c.Status(),
		Message: c.Msg(),
		Data:    c.Data(),
	}
	if c.HaveDetails() {
		res.Details = strings.Join(c.Details(), ",")
	}
	return res
}

// ToResponse 以 c.StatusCode() 写出 c 的响应信封
func (r *Response) ToResponse(c *code.Code) {
	r.Ctx.JSON(c.StatusCode(), envelope(c))
}
