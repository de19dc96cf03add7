package handler

import (
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeCalendar = "text/calendar; charset=utf-8"
)

// setDownloadHeaders 设置下载响应头（文件名按 RFC 5987 编码）
func setDownloadHeaders(c *gin.Context, filename string, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", disposition+"; filename*=UTF-8''"+url.PathEscape(filename))
}
