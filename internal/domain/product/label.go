package product

import (
	"strconv"
	"strings"
)

// Label 入库时写入brief的标签:商品ID的十进制字符串
func Label(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseLabel 解析检索结果中的brief
// 只接受正整数,其它内容(旧格式、人工录入的描述等)返回false
func ParseLabel(brief string) (uint, bool) {
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(brief, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
