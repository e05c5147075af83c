package wifi

import (
	"encoding/binary"
	"log/slog"
	"net"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/hal"
)

// ethernetHeaderSize is the link header carried in front of every frame.
const ethernetHeaderSize = 14

// dumpFrame logs the link header of a frame at debug level.
func dumpFrame(dir string, iface hal.Interface, frame []byte) {
	if !pkg.LogEnabled(slog.LevelDebug) {
		return
	}
	if len(frame) < ethernetHeaderSize {
		pkg.LogDebug(pkg.ComponentCore, "short frame",
			"dir", dir,
			"iface", iface,
			"len", len(frame))
		return
	}
	pkg.LogDebug(pkg.ComponentCore, "frame",
		"dir", dir,
		"iface", iface,
		"dst", net.HardwareAddr(frame[0:6]).String(),
		"src", net.HardwareAddr(frame[6:12]).String(),
		"ethertype", binary.BigEndian.Uint16(frame[12:14]),
		"len", len(frame))
}
