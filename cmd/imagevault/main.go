// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/imagevault/pkg/cmd"
)

//	@title			ImageVault API
//	@version		1.0
//	@description	ImageVault 是多租户图片托管服务，提供图片上传、按套餐生成缩略图以及带签名的过期链接。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
