package stats

import "github.com/pastats/pastats/internal/panos"

// GlobalProtectModule covers remote-access VPN: gateway and portal
// summaries plus user counts.
func GlobalProtectModule() Module {
	return Module{
		Name:        "global_protect",
		Description: "GlobalProtect gateway and portal state and user counts",
		Collections: []Collection{
			{
				Name:    "gateway_summary",
				Command: "<show><global-protect-gateway><summary><detail/></summary></global-protect-gateway></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.Gateway"},
					Counters: []string{
						"result.TotalCurrentUsers",
						"result.TotalPreviousUsers",
					},
				},
			},
			{
				Name:    "gateway_statistics",
				Command: "<show><global-protect-gateway><statistics/></global-protect-gateway></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.Gateway"},
					Counters:   []string{"result.TotalCurrentUsers"},
				},
			},
			{
				Name:    "portal_statistics",
				Command: "<show><global-protect-portal><statistics/></global-protect-portal></show>",
			},
			{
				Name:    "portal_summary",
				Command: "<show><global-protect-portal><summary><all/></summary></global-protect-portal></show>",
			},
		},
	}
}
