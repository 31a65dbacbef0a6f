// Package netgate decides whether network access is currently permitted.
package netgate

import (
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-uploader/internal/config"
)

// Interface is the part of a network interface the gate looks at.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	HasAddr  bool
}

// Gate answers CanConnect for a connectivity policy.
type Gate struct {
	// List returns the host's interfaces.
	List func() ([]Interface, error)
	// Wireless reports whether the named interface is a Wi-Fi device.
	Wireless func(name string) bool
}

// New returns a Gate backed by the host's interfaces.
func New() *Gate {
	return &Gate{List: hostInterfaces, Wireless: sysfsWireless}
}

// CanConnect reports whether policy permits network use right now.
func (g *Gate) CanConnect(policy config.NetworkPolicy) bool {
	ifaces, err := g.List()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list network interfaces")
		return false
	}

	for _, ifc := range ifaces {
		if !ifc.Up || ifc.Loopback || !ifc.HasAddr {
			continue
		}
		if policy == config.PolicyWiFiOnly && !g.Wireless(ifc.Name) {
			continue
		}
		log.Debug().Str("interface", ifc.Name).Str("policy", string(policy)).Msg("Network permitted")
		return true
	}

	log.Debug().Str("policy", string(policy)).Int("interfaces", len(ifaces)).Msg("No interface satisfies policy")
	return false
}

func hostInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		out = append(out, Interface{
			Name:     ifc.Name,
			Up:       ifc.Flags&net.FlagUp != 0,
			Loopback: ifc.Flags&net.FlagLoopback != 0,
			HasAddr:  err == nil && len(addrs) > 0,
		})
	}
	return out, nil
}

var sysClassNet = "/sys/class/net"

func sysfsWireless(name string) bool {
	for _, marker := range []string{"wireless", "phy80211"} {
		if _, err := os.Stat(filepath.Join(sysClassNet, name, marker)); err == nil {
			return true
		}
	}
	return false
}
