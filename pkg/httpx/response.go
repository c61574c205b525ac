package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"google.golang.org/protobuf/proto"
)

// WriteObject 兼容protobuf和json
//
// 出错时默认按400返回，调用方可通过可选的status参数改写错误状态码。
func WriteObject(c *gin.Context, obj interface{}, err error, errStatus ...int) {
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadRequest
		if len(errStatus) > 0 {
			status = errStatus[0]
		}
	}

	switch c.ContentType() {
	case binding.MIMEPROTOBUF:
		if msg, ok := obj.(proto.Message); ok {
			c.ProtoBuf(status, msg)
			return
		}
		c.String(http.StatusInternalServerError, "expected proto.Message for protobuf response")
	default:
		c.JSON(status, obj)
	}
}

// WriteStatus 以指定HTTP状态码输出JSON
func WriteStatus(c *gin.Context, status int, obj interface{}) {
	c.JSON(status, obj)
}
