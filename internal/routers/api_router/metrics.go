package api_router

import (
	"encoding/json"
	"expvar"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

// Expvar 以 JSON 输出 expvar 变量，可通过 ?name= 只取单个变量
func Expvar(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		v := expvar.Get(name)
		if v == nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(v.String()))
		return
	}

	vars := make(map[string]json.RawMessage)
	expvar.Do(func(kv expvar.KeyValue) {
		vars[kv.Key] = json.RawMessage(kv.Value.String())
	})
	body, err := sonic.Marshal(vars)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
