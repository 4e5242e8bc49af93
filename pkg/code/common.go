package code

// 通用
var (
	Success              = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	ErrorServerInternal  = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorInvalidParams   = NewError(400, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorNotFoundAPI     = NewError(404, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorTooManyRequests = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorDBQuery         = NewError(502, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorTimeout         = NewError(504, lang{en: "Request timeout", zh_cn: "请求超时"})
)

// 文章
var (
	ErrorArticleNotFound     = NewError(4001, lang{en: "Article not found", zh_cn: "文章不存在"})
	ErrorArticleSlugExists   = NewError(4002, lang{en: "Article slug already exists", zh_cn: "文章别名已存在"})
	ErrorArticleUpdateFailed = NewError(4003, lang{en: "Article update failed", zh_cn: "文章更新失败"})
)

// 修订版本
var (
	ErrorRevisionNotFound         = NewError(4101, lang{en: "Revision not found", zh_cn: "修订版本不存在"})
	ErrorVersionConflict          = NewError(4102, lang{en: "Version conflict, please retry the edit", zh_cn: "版本冲突，请重新提交编辑"})
	ErrorValidation               = NewError(4103, lang{en: "Revision payload is invalid", zh_cn: "修订内容校验失败"})
	ErrorInconsistentRestoreState = NewError(4104, lang{en: "Article restored but history was not recorded, retry the history write", zh_cn: "文章已恢复但历史未记录，请重试写入历史"})
	ErrorDiffArticleMismatch      = NewError(4105, lang{en: "Revisions belong to different articles", zh_cn: "修订版本不属于同一文章"})
)
