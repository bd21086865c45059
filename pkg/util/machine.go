package util

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

const machineAppID = "block-note-service"

var (
	machineID     string
	machineIDOnce sync.Once
)

// GetMachineID returns a stable identifier of the current host, mixed into the token signing key
// Falls back to the hostname and finally to an empty string when nothing is available.
// GetMachineID 返回当前主机的稳定标识，参与令牌签名密钥；无法获取时回退到主机名，最后为空字符串
func GetMachineID() string {
	machineIDOnce.Do(func() {
		if id, err := machineid.ProtectedID(machineAppID); err == nil && id != "" {
			machineID = id
			return
		}
		if host, err := os.Hostname(); err == nil {
			machineID = host
		}
	})
	return machineID
}
