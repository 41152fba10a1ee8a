package stats

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pastats/pastats/internal/panos"
)

// Routing mode values accepted in config; "auto" probes the firewall.
const (
	RoutingModeAuto     = "auto"
	RoutingModeLegacy   = "legacy"
	RoutingModeAdvanced = "advanced"
)

// advancedProbeCommand distinguishes the advanced routing engine from
// the legacy one; legacy firewalls reject it with a remote error.
const advancedProbeCommand = "<show><advanced-routing><static-route-path-monitor></static-route-path-monitor></advanced-routing></show>"

// RoutingModule covers BGP state and routing tables. Firewalls run one
// of two routing engines with disjoint command trees, so the collection
// set is chosen per firewall during Prepare; legacy results are
// reshaped into the advanced format so downstream consumers see one
// shape regardless of engine.
func RoutingModule() Module {
	return Module{
		Name:        "routing",
		Description: "BGP summaries, peer status, path monitors, and routing tables",
		Collections: legacyRoutingCollections(),
		Prepare: func(ctx context.Context, r *Runner, firewall string) ([]Collection, error) {
			mode, err := detectRoutingMode(ctx, r, firewall)
			if err != nil {
				return nil, err
			}
			if mode == RoutingModeAdvanced {
				return advancedRoutingCollections(), nil
			}
			return legacyRoutingCollections(), nil
		},
	}
}

// detectRoutingMode honors an explicit routing_mode and probes the
// firewall when it is "auto".
func detectRoutingMode(ctx context.Context, r *Runner, firewall string) (string, error) {
	fw, ok := r.Client().Config().Firewalls[firewall]
	if ok && fw.RoutingMode != "" && fw.RoutingMode != RoutingModeAuto {
		return fw.RoutingMode, nil
	}

	_, _, err := r.Client().Query(ctx, firewall, panos.Operation{
		ID:      "routing.mode-probe",
		Command: advancedProbeCommand,
	})
	if err == nil {
		r.log.Debug("auto-detected advanced routing mode for %s", firewall)
		return RoutingModeAdvanced, nil
	}
	if isAuthError(err) {
		return "", err
	}
	r.log.Debug("auto-detected legacy routing mode for %s: %v", firewall, err)
	return RoutingModeLegacy, nil
}

func advancedRoutingCollections() []Collection {
	return []Collection{
		{
			Name:    "bgp_summary",
			Command: "<show><advanced-routing><bgp><summary></summary></bgp></advanced-routing></show>",
			Parse:   parseJSONFields,
		},
		{
			Name:    "bgp_peer_status",
			Command: "<show><advanced-routing><bgp><peer><status/></peer></bgp></advanced-routing></show>",
			Parse:   parseJSONFields,
		},
		{
			Name:    "bgp_path_monitor",
			Command: "<show><advanced-routing><static-route-path-monitor/></advanced-routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
		},
		{
			Name:    "routing_table",
			Command: "<show><advanced-routing><route></route></advanced-routing></show>",
			Parse:   parseJSONFields,
		},
		{
			Name:    "bgp_routes",
			Command: "<show><advanced-routing><route><type>bgp</type></route></advanced-routing></show>",
			Parse:   parseJSONFields,
		},
		{
			Name:    "static_routes",
			Command: "<show><advanced-routing><route><type>static</type></route></advanced-routing></show>",
			Parse:   parseJSONFields,
		},
	}
}

func legacyRoutingCollections() []Collection {
	return []Collection{
		{
			Name:    "bgp_summary",
			Command: "<show><routing><protocol><bgp><summary></summary></bgp></protocol></routing></show>",
			Parse:   normalizeLegacyBGPSummary,
		},
		{
			Name:    "bgp_peer_status",
			Command: "<show><routing><protocol><bgp><peer></peer></bgp></protocol></routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
			Parse:   normalizeLegacyPeerStatus,
		},
		{
			Name:    "bgp_path_monitor",
			Command: "<show><routing><path-monitor></path-monitor></routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
		},
		{
			Name:    "routing_table",
			Command: "<show><routing><route></route></routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
			Parse:   normalizeLegacyRoutes,
		},
		{
			Name:    "bgp_routes",
			Command: "<show><routing><route><type>bgp</type></route></routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
			Parse:   normalizeLegacyRoutes,
		},
		{
			Name:    "static_routes",
			Command: "<show><routing><route><type>static</type></route></routing></show>",
			Schema:  panos.Schema{Repeatable: []string{"result.entry"}},
			Parse:   normalizeLegacyRoutes,
		},
	}
}

// parseJSONFields merges embedded "json" string fields into their
// parent map. The advanced routing engine wraps most of its output in
// one of these.
func parseJSONFields(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "json" {
			if s, ok := v.(string); ok {
				var decoded map[string]any
				if err := json.Unmarshal([]byte(s), &decoded); err == nil {
					for dk, dv := range decoded {
						out[dk] = dv
					}
					continue
				}
			}
		}
		if child, ok := v.(map[string]any); ok {
			out[k] = parseJSONFields(child)
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeLegacyBGPSummary rekeys the single summary entry by its
// virtual router, matching the advanced engine's VRF-keyed shape.
func normalizeLegacyBGPSummary(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	entry, ok := m["entry"].(map[string]any)
	if !ok {
		return m
	}

	vrf := "default"
	if v, ok := entry["@virtual-router"].(string); ok && v != "" {
		vrf = v
	}
	stripped := make(map[string]any, len(entry))
	for k, v := range entry {
		if !strings.HasPrefix(k, "@") {
			stripped[k] = v
		}
	}
	return map[string]any{vrf: stripped}
}

// legacyPeerFieldNames maps legacy peer attribute names onto the
// advanced engine's vocabulary.
var legacyPeerFieldNames = map[string]string{
	"status":          "state",
	"status-duration": "status-time",
	"peer-group":      "peer-group-name",
	"peer-address":    "peer-ip",
	"local-address":   "local-ip",
}

// normalizeLegacyPeerStatus rekeys peer entries by peer name and
// renames fields into the advanced vocabulary.
func normalizeLegacyPeerStatus(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	entries, ok := m["entry"].([]any)
	if !ok {
		return m
	}

	normalized := make(map[string]any, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name := "unknown"
		if v, ok := entry["@peer"].(string); ok && v != "" {
			name = v
		} else if v, ok := entry["peer-name"].(string); ok && v != "" {
			name = v
		}

		fields := make(map[string]any, len(entry))
		for k, v := range entry {
			if strings.HasPrefix(k, "@") {
				continue
			}
			if mapped, ok := legacyPeerFieldNames[k]; ok {
				k = mapped
			}
			fields[k] = v
		}
		normalized[name] = fields
	}
	return normalized
}

// normalizeLegacyRoutes groups flat route entries by virtual router and
// destination. Destinations hold lists since ECMP produces multiple
// routes per prefix.
func normalizeLegacyRoutes(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	entries, ok := m["entry"].([]any)
	if !ok {
		return m
	}

	byVRF := map[string]any{}
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		vrf := "default"
		if v, ok := entry["virtual-router"].(string); ok && v != "" {
			vrf = v
		}
		destination := "unknown"
		if v, ok := entry["destination"].(string); ok && v != "" {
			destination = v
		}

		route := make(map[string]any, len(entry))
		for k, v := range entry {
			if k != "virtual-router" {
				route[k] = v
			}
		}

		vrfRoutes, _ := byVRF[vrf].(map[string]any)
		if vrfRoutes == nil {
			vrfRoutes = map[string]any{}
			byVRF[vrf] = vrfRoutes
		}
		routes, _ := vrfRoutes[destination].([]any)
		vrfRoutes[destination] = append(routes, route)
	}
	return byVRF
}
