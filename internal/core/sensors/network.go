package sensors

import (
	"fmt"
	"strings"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_NETWORK_INTERVAL = 30 * time.Second
	ALL_NETWORK_CARDS        = "*"
)

type NetworkInfo struct {
	Name                     string   `json:"name"`
	NetworkInterfaceType     string   `json:"network_interface_type"`
	SpeedBitsPerSecond       int64    `json:"speed_bits_per_second"`
	OperationalStatus        string   `json:"operational_status"`
	DataReceivedMB           float64  `json:"data_received_mb"`
	DataSentMB               float64  `json:"data_sent_mb"`
	IncomingPacketsDiscarded uint64   `json:"incoming_packets_discarded"`
	IncomingPacketsErrors    uint64   `json:"incoming_packets_with_errors"`
	OutgoingPacketsDiscarded uint64   `json:"outgoing_packets_discarded"`
	OutgoingPacketsErrors    uint64   `json:"outgoing_packets_with_errors"`
	IpAddresses              []string `json:"ip_addresses"`
	MacAddresses             []string `json:"mac_addresses"`
	Gateways                 []string `json:"gateways"`
	DnsAddresses             []string `json:"dns_addresses"`
	DhcpEnabled              bool     `json:"dhcp_enabled"`
}

// NetworkCardId normalizes a native NIC id: braces and dashes are stripped and
// the result lowercased.
func NetworkCardId(raw string) string {
	return strings.ToLower(strings.NewReplacer("{", "", "}", "", "-", "").Replace(raw))
}

func nonEmpty(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func NewNetworkInfo(nic port.NetworkCard) NetworkInfo {
	return NetworkInfo{
		Name:                     nic.Name,
		NetworkInterfaceType:     nic.InterfaceType,
		SpeedBitsPerSecond:       nic.SpeedBitsPerSecond,
		OperationalStatus:        nic.OperationalStatus,
		DataReceivedMB:           bytesToMB(nic.BytesReceived),
		DataSentMB:               bytesToMB(nic.BytesSent),
		IncomingPacketsDiscarded: nic.IncomingDiscarded,
		IncomingPacketsErrors:    nic.IncomingErrors,
		OutgoingPacketsDiscarded: nic.OutgoingDiscarded,
		OutgoingPacketsErrors:    nic.OutgoingErrors,
		IpAddresses:              nonEmpty(nic.IpAddresses),
		MacAddresses:             nonEmpty([]string{nic.MacAddress}),
		Gateways:                 nonEmpty(nic.Gateways),
		DnsAddresses:             nonEmpty(nic.DnsAddresses),
		DhcpEnabled:              nic.DhcpEnabled,
	}
}

// NewNetworkSensors exposes one child per NIC plus a total_network_card_count
// child. selector restricts the sensor to a single NIC id; "*" or blank
// selects all of them.
func NewNetworkSensors(id *entity.Identity, interval time.Duration, source port.NetworkSource, selector string, logger *zap.Logger) *entity.MultiValueSensor {
	if interval == 0 {
		interval = DEFAULT_NETWORK_INTERVAL
	}
	selector = strings.TrimSpace(selector)
	useSpecific := selector != "" && selector != ALL_NETWORK_CARDS
	return entity.NewMultiValueSensor(id, interval, logger, func(r *entity.Refresh) {
		ctx, cancel := readContext()
		defer cancel()
		cards, err := source.NetworkCards(ctx)
		if err != nil {
			r.Fail(fmt.Errorf("network enumeration: %w", err))
			return
		}
		count := 0
		for _, nic := range cards {
			if useSpecific && nic.Id != selector && NetworkCardId(nic.Id) != NetworkCardId(selector) {
				continue
			}
			key := NetworkCardId(nic.Id)
			if strings.TrimSpace(key) == "" {
				continue
			}
			if r.Try(nic.Name, func() error {
				child := r.Value(key, nic.Name, entity.SensorOptions{Icon: ICON_LAN}, true)
				child.SetString(nic.OperationalStatus)
				child.SetAttributesValue(NewNetworkInfo(nic))
				return nil
			}) {
				count++
			}
		}
		r.Count("total_network_card_count", "Network Card Count", ICON_LAN, count)
	})
}
