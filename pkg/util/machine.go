package util

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

// machineAppID 用于派生本应用专属的机器标识，不直接暴露原始 machine-id
const machineAppID = "novel-sync-service"

var (
	machineID     string
	machineIDOnce sync.Once
)

// GetMachineID 获取当前机器的唯一标识符，用作 Token 签名盐
// 优先使用 machineid（按应用派生的 HMAC），失败时在 Linux 上读取主板序列号
// 全部失败时返回空字符串
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ProtectedID(machineAppID); err == nil && id != "" {
			machineID = id
			return
		}
		machineID = boardSerial()
	})
	return machineID
}

func boardSerial() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	content, err := os.ReadFile("/sys/class/dmi/id/board_serial")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}
