// Package usb locates a printer-class device on the bus and drives bulk
// transfers to its write endpoint. It knows nothing about ESC/POS or any
// other command set; payloads are opaque byte sequences.
package usb

import (
	"sort"

	"github.com/google/gousb"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

// Locator identifies one bulk OUT endpoint on one device configuration.
// It is valid only for the configuration/interface/alternate-setting triple
// it was discovered under; configuring anything else and writing to the
// same address is undefined.
type Locator struct {
	Config    int // configuration number
	Interface int // interface number within the configuration
	Alt       int // alternate setting number within the interface
	Endpoint  int // endpoint number, as passed to Interface.OutEndpoint

	// Address is the raw bEndpointAddress the endpoint was discovered under.
	Address gousb.EndpointAddress
}

// HasPrinterInterface reports whether any interface of any configuration of
// desc carries the printer class at any alternate setting.
func HasPrinterInterface(desc *gousb.DeviceDesc) bool {
	if desc == nil {
		return false
	}
	for _, num := range sortedConfigs(desc) {
		for _, intf := range desc.Configs[num].Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == IfaceClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// FindOutEndpoint walks configurations, interfaces, alternate settings and
// endpoints of desc in order and returns the locator of the first bulk OUT
// endpoint. The second return value is false when the device has none; that
// is an empty result, not an error. Map-keyed levels are walked in ascending
// key order, so a fixed descriptor tree always yields the same locator.
func FindOutEndpoint(desc *gousb.DeviceDesc) (Locator, bool) {
	if desc == nil {
		return Locator{}, false
	}
	for _, num := range sortedConfigs(desc) {
		cfg := desc.Configs[num]
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				for _, addr := range sortedEndpoints(alt) {
					ep := alt.Endpoints[addr]
					if ep.Direction != gousb.EndpointDirectionOut {
						continue
					}
					if ep.TransferType != gousb.TransferTypeBulk {
						continue
					}
					return Locator{
						Config:    cfg.Number,
						Interface: intf.Number,
						Alt:       alt.Alternate,
						Endpoint:  ep.Number,
						Address:   ep.Address,
					}, true
				}
			}
		}
	}
	return Locator{}, false
}

func sortedConfigs(desc *gousb.DeviceDesc) []int {
	nums := make([]int, 0, len(desc.Configs))
	for num := range desc.Configs {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

func sortedEndpoints(alt gousb.InterfaceSetting) []gousb.EndpointAddress {
	addrs := make([]gousb.EndpointAddress, 0, len(alt.Endpoints))
	for addr := range alt.Endpoints {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
