package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// StationConfig describes the link to bring up.
type StationConfig struct {
	Mode      string // none or nmcli
	Interface string
	SSID      string
	Password  string
}

// NewStation returns the station for cfg.Mode.
func NewStation(cfg StationConfig) (Station, error) {
	switch cfg.Mode {
	case "", "none":
		return &staticStation{iface: cfg.Interface}, nil
	case "nmcli":
		if cfg.Interface == "" {
			return nil, errors.New("nmcli mode requires an interface")
		}
		return &nmcliStation{
			iface:    cfg.Interface,
			ssid:     cfg.SSID,
			password: cfg.Password,
			run:      execRunner,
		}, nil
	default:
		return nil, fmt.Errorf("unknown network mode %q", cfg.Mode)
	}
}

// staticStation is for hosts whose network is managed elsewhere.
// Without an interface the link is assumed up.
type staticStation struct {
	iface string
}

func (s *staticStation) Associate(context.Context) error { return nil }

func (s *staticStation) Address() (net.IP, error) {
	if s.iface == "" {
		return net.IPv4zero, nil
	}
	return InterfaceIPv4(s.iface)
}

// nmcliStation asks NetworkManager to join a wireless network.
type nmcliStation struct {
	iface    string
	ssid     string
	password string
	run      Runner
}

func (s *nmcliStation) Associate(ctx context.Context) error {
	var args []string
	if s.ssid == "" {
		args = []string{"device", "connect", s.iface}
	} else {
		args = []string{"device", "wifi", "connect", s.ssid, "ifname", s.iface}
		if s.password != "" {
			args = append(args, "password", s.password)
		}
	}

	out, err := s.run(ctx, "nmcli", args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if s.password != "" {
			msg = strings.ReplaceAll(msg, s.password, "***")
		}
		return fmt.Errorf("nmcli %s: %w: %s", args[1], err, msg)
	}
	return nil
}

func (s *nmcliStation) Address() (net.IP, error) {
	return InterfaceIPv4(s.iface)
}

// InterfaceIPv4 returns the first non-loopback IPv4 address of the named
// interface, nil when it has none, or an error when the interface is
// missing.
func InterfaceIPv4(name string) (net.IP, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	if iface.Flags&net.FlagUp == 0 {
		return nil, nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4, nil
		}
	}
	return nil, nil
}
