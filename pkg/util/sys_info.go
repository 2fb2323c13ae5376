package util

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// GetOSPrettyName 获取可读的操作系统名称及版本，用于 version 命令输出
func GetOSPrettyName() string {
	switch runtime.GOOS {
	case "linux":
		return osReleaseName("/etc/os-release")
	case "darwin":
		if out, err := exec.Command("sw_vers", "-productVersion").Output(); err == nil {
			return "macOS " + strings.TrimSpace(string(out))
		}
		return "macOS"
	case "windows":
		if out, err := exec.Command("cmd", "/c", "ver").Output(); err == nil {
			return strings.TrimSpace(string(out))
		}
		return "Windows"
	default:
		return runtime.GOOS
	}
}

// osReleaseName 读取 os-release 文件中的 PRETTY_NAME
func osReleaseName(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return "Linux"
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "PRETTY_NAME="); ok {
			return strings.Trim(name, `"`)
		}
	}
	return "Linux"
}
