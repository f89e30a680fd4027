// Command api 商城以图搜图服务
//
// 子命令：
//
//	api serve                  启动HTTP服务
//	api migrate up|down|version 数据库迁移
//	api admin create|promote    管理员账号
//	api events tail             订阅并打印图库变更事件
//
// @title           商城以图搜图API
// @version         1.0
// @description     商品主图入库百度相似图库、以图搜图、入库状态管理
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
