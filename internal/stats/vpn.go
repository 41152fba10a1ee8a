package stats

import "github.com/pastats/pastats/internal/panos"

// VPNModule covers site-to-site tunnel state: IKE gateways, IPsec SAs,
// and per-tunnel flow counters.
func VPNModule() Module {
	return Module{
		Name:        "vpn_tunnels",
		Description: "IPsec tunnel state, IKE gateways, and flow counters",
		Collections: []Collection{
			{
				Name:    "vpn_flows",
				Command: "<show><vpn><flow><all></all></flow></vpn></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.IPSec.entry"},
				},
			},
			{
				Name:    "vpn_gateways",
				Command: "<show><vpn><gateway></gateway></vpn></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.entries.entry"},
				},
			},
			{
				Name:    "vpn_tunnels",
				Command: "<show><vpn><tunnel></tunnel></vpn></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.entries.entry"},
				},
			},
			{
				Name:    "ipsec_sa",
				Command: "<show><vpn><ipsec-sa></ipsec-sa></vpn></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.entries.entry"},
				},
			},
		},
	}
}
