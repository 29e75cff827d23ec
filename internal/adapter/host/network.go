package host

import (
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

// ARPHRD_* values from /sys/class/net/{if}/type.
const (
	arphrdEther    = 1
	arphrdLoopback = 772
	arphrdNone     = 65534
)

// NetworkCards lists every interface under /sys/class/net with the traffic
// counters of /proc/net/dev. The interface name doubles as the card id.
func (h *Host) NetworkCards(ctx context.Context) ([]port.NetworkCard, error) {
	sys, err := h.sysFS()
	if err != nil {
		return nil, err
	}
	class, err := sys.NetClass()
	if err != nil {
		return nil, err
	}
	stats := procfs.NetDev{}
	if fs, err := h.procFS(); err == nil {
		if dev, err := fs.NetDev(); err == nil {
			stats = dev
		}
	}
	gateways := h.gateways()
	dns := h.nameservers()

	names := make([]string, 0, len(class))
	for name := range class {
		names = append(names, name)
	}
	sort.Strings(names)

	cards := []port.NetworkCard{}
	for _, name := range names {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		iface := class[name]
		card := port.NetworkCard{
			Id:                name,
			Name:              name,
			InterfaceType:     h.interfaceType(name, iface.Type),
			OperationalStatus: operationalStatus(iface.OperState),
			MacAddress:        strings.ToUpper(iface.Address),
			Gateways:          gateways[name],
			DnsAddresses:      dns,
		}
		if iface.Speed != nil && *iface.Speed > 0 {
			card.SpeedBitsPerSecond = *iface.Speed * 1_000_000
		}
		if dev, ok := stats[name]; ok {
			card.BytesReceived = dev.RxBytes
			card.BytesSent = dev.TxBytes
			card.IncomingDiscarded = dev.RxDropped
			card.IncomingErrors = dev.RxErrors
			card.OutgoingDiscarded = dev.TxDropped
			card.OutgoingErrors = dev.TxErrors
		}

		if link, err := net.InterfaceByName(name); err == nil {
			if addrs, err := link.Addrs(); err == nil {
				for _, a := range addrs {
					if ipnet, ok := a.(*net.IPNet); ok {
						card.IpAddresses = append(card.IpAddresses, ipnet.IP.String())
					}
				}
			}
			if _, err := os.Stat(h.path("run", "systemd", "netif", "leases", strconv.Itoa(link.Index))); err == nil {
				card.DhcpEnabled = true
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (h *Host) interfaceType(name string, arphrd *int64) string {
	if _, err := os.Stat(h.path("sys", "class", "net", name, "wireless")); err == nil {
		return "Wireless80211"
	}
	if arphrd == nil {
		return "Unknown"
	}
	switch *arphrd {
	case arphrdEther:
		return "Ethernet"
	case arphrdLoopback:
		return "Loopback"
	case arphrdNone:
		return "Tunnel"
	default:
		return "Unknown"
	}
}

func operationalStatus(operstate string) string {
	switch operstate {
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "dormant":
		return "Dormant"
	case "testing":
		return "Testing"
	case "notpresent":
		return "NotPresent"
	case "lowerlayerdown":
		return "LowerLayerDown"
	default:
		return "Unknown"
	}
}

// gateways collects the default routes of /proc/net/route by interface.
func (h *Host) gateways() map[string][]string {
	out := map[string][]string{}
	fs, err := h.procFS()
	if err != nil {
		return out
	}
	routes, err := fs.NetRoute()
	if err != nil {
		h.logger.Debug("route table read failed", zap.Error(err))
		return out
	}
	for _, r := range routes {
		if r.Destination != 0 {
			continue
		}
		// the kernel prints the gateway in host (little endian) byte order
		ip := make(net.IP, 4)
		binary.LittleEndian.PutUint32(ip, r.Gateway)
		out[r.Iface] = append(out[r.Iface], ip.String())
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

func (h *Host) nameservers() []string {
	out := []string{}
	f, err := os.Open(h.path("etc", "resolv.conf"))
	if err != nil {
		return out
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "nameserver" {
			out = append(out, fields[1])
		}
	}
	return out
}
