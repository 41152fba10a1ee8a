package stats

import "github.com/pastats/pastats/internal/panos"

// CountersModule covers dataplane global counters, session table
// pressure, and management-server counters.
func CountersModule() Module {
	return Module{
		Name:        "global_counters",
		Description: "Dataplane global counters and session table statistics",
		Collections: []Collection{
			{
				Name:    "global_counters",
				Command: "<show><counter><global></global></counter></show>",
				Schema: panos.Schema{
					Repeatable: []string{"result.global.counters.entry"},
					Counters:   []string{"result.global.counters.entry.value"},
				},
			},
			{
				Name:    "session_info",
				Command: "<show><session><info></info></session></show>",
				Schema: panos.Schema{
					Counters: []string{
						"result.num-active",
						"result.num-max",
						"result.num-tcp",
						"result.num-udp",
						"result.num-icmp",
					},
				},
			},
			{
				Name:    "management_server_counters",
				Command: "<show><counter><management-server/></counter></show>",
			},
		},
	}
}
