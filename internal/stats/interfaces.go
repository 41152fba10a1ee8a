package stats

import "github.com/pastats/pastats/internal/panos"

// InterfacesModule covers interface state and traffic counters. The
// counter response nests a second <ifnet> element inside the first; the
// schema paths follow that shape.
func InterfacesModule() Module {
	return Module{
		Name:        "network_interfaces",
		Description: "Interface state, addressing, and traffic counters",
		Collections: []Collection{
			{
				Name:    "interface_info",
				Command: "<show><interface>all</interface></show>",
				Schema: panos.Schema{
					Repeatable: []string{
						"result.ifnet.entry",
						"result.hw.entry",
					},
				},
			},
			{
				Name:    "interface_counters",
				Command: "<show><counter><interface>all</interface></counter></show>",
				Schema: panos.Schema{
					Repeatable: []string{
						"result.ifnet.ifnet.entry",
						"result.hw.entry",
					},
					Counters: []string{
						"result.ifnet.ifnet.entry.ibytes",
						"result.ifnet.ifnet.entry.obytes",
						"result.ifnet.ifnet.entry.ipackets",
						"result.ifnet.ifnet.entry.opackets",
						"result.ifnet.ifnet.entry.ierrors",
						"result.ifnet.ifnet.entry.idrops",
					},
				},
			},
		},
	}
}
