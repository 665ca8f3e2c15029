package main

import (
	"os"

	"hihitutor/cmd"
)

// @title                       HiHiTutor API
// @version                     1.0
// @description                 补习配对平台后端：注册登录、手机验证、导师资料审批、补习个案
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
