package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

const unknownTerminal = "POS-UNKNOWN"

// TerminalID derives a stable id for this back office host from the first
// active network interface, e.g. "POS-A1B2C3D4". It tags published events
// and the health report so a store with several terminals can tell them apart.
func TerminalID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return fromHostname()
	}

	var macAddress string
	for _, i := range interfaces {
		// first active physical interface
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}
	if macAddress == "" {
		return fromHostname()
	}
	return hashID(macAddress)
}

func fromHostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return unknownTerminal
	}
	return hashID(host)
}

func hashID(seed string) string {
	hash := sha256.Sum256([]byte(seed + "POS-BACKOFFICE"))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
