package netgate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/photo-uploader/internal/config"
)

func gateWith(ifaces []Interface, wireless ...string) *Gate {
	wifi := make(map[string]bool)
	for _, w := range wireless {
		wifi[w] = true
	}
	return &Gate{
		List:     func() ([]Interface, error) { return ifaces, nil },
		Wireless: func(name string) bool { return wifi[name] },
	}
}

func TestCanConnect(t *testing.T) {
	lo := Interface{Name: "lo", Up: true, Loopback: true, HasAddr: true}
	eth := Interface{Name: "eth0", Up: true, HasAddr: true}
	wlan := Interface{Name: "wlan0", Up: true, HasAddr: true}
	wlanDown := Interface{Name: "wlan0", HasAddr: true}
	ethNoAddr := Interface{Name: "eth0", Up: true}

	tests := []struct {
		name     string
		ifaces   []Interface
		wireless []string
		policy   config.NetworkPolicy
		want     bool
	}{
		{"loopback only", []Interface{lo}, nil, config.PolicyAny, false},
		{"wired any", []Interface{lo, eth}, nil, config.PolicyAny, true},
		{"wired wifi-only", []Interface{lo, eth}, nil, config.PolicyWiFiOnly, false},
		{"wireless wifi-only", []Interface{eth, wlan}, []string{"wlan0"}, config.PolicyWiFiOnly, true},
		{"wireless down", []Interface{wlanDown}, []string{"wlan0"}, config.PolicyWiFiOnly, false},
		{"no address", []Interface{ethNoAddr}, nil, config.PolicyAny, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gateWith(tt.ifaces, tt.wireless...).CanConnect(tt.policy)
			if got != tt.want {
				t.Errorf("CanConnect(%s) = %v, want %v", tt.policy, got, tt.want)
			}
		})
	}
}

func TestCanConnectListError(t *testing.T) {
	g := &Gate{
		List:     func() ([]Interface, error) { return nil, errors.New("netlink unavailable") },
		Wireless: func(string) bool { return true },
	}
	if g.CanConnect(config.PolicyAny) {
		t.Error("expected false when interfaces cannot be listed")
	}
}

func TestSysfsWireless(t *testing.T) {
	dir := t.TempDir()
	orig := sysClassNet
	sysClassNet = dir
	defer func() { sysClassNet = orig }()

	if err := os.MkdirAll(filepath.Join(dir, "wlan0", "phy80211"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "eth0"), 0o755); err != nil {
		t.Fatal(err)
	}

	if !sysfsWireless("wlan0") {
		t.Error("expected wlan0 to be wireless")
	}
	if sysfsWireless("eth0") {
		t.Error("expected eth0 to be wired")
	}
}
