// Package influx renders collected stats as InfluxDB line protocol for
// time-series ingestion. Tags are emitted in sorted order so lines are
// stable across runs; numeric fields keep their normalized types since
// InfluxDB pins a field to the first type it sees.
package influx

import (
	"sort"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
	"github.com/pastats/pastats/internal/logger"
)

// measurementPrefix namespaces every measurement emitted here.
const measurementPrefix = "palo_alto_"

// Converter turns fleet outcomes into line protocol.
type Converter struct {
	ts  time.Time
	log logger.Logger

	lines   int
	skipped int
}

// NewConverter creates a converter stamping every line with ts.
func NewConverter(ts time.Time, log logger.Logger) *Converter {
	if log == nil {
		log = logger.Noop()
	}
	return &Converter{ts: ts, log: log}
}

// Lines reports how many lines the last Convert produced.
func (c *Converter) Lines() int { return c.lines }

// Convert renders every successful outcome. Failed firewalls produce no
// lines; partial fleets still convert.
func (c *Converter) Convert(outcomes map[string]fleet.Outcome) ([]byte, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Nanosecond)

	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	c.lines, c.skipped = 0, 0
	for _, name := range names {
		out := outcomes[name]
		if !out.Success {
			c.log.Debug("skipping %s: %v", name, out.Err)
			c.skipped++
			continue
		}
		c.convertFirewall(&enc, out.Hostname, out.Data)
	}

	if err := enc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrMalformed, "Cannot encode line protocol")
	}
	return enc.Bytes(), nil
}

func (c *Converter) convertFirewall(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	if m, ok := data["system"].(map[string]any); ok {
		c.convertSystem(enc, hostname, m)
	}
	if m, ok := data["network_interfaces"].(map[string]any); ok {
		c.convertInterfaces(enc, hostname, m)
	}
	if m, ok := data["global_counters"].(map[string]any); ok {
		c.convertSessions(enc, hostname, m)
	}
	if m, ok := data["global_protect"].(map[string]any); ok {
		c.convertGlobalProtect(enc, hostname, m)
	}
	if m, ok := data["vpn_tunnels"].(map[string]any); ok {
		c.convertVPN(enc, hostname, m)
	}
	if m, ok := data["routing"].(map[string]any); ok {
		c.convertRouting(enc, hostname, m)
	}
}

func (c *Converter) convertSystem(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	if info, ok := dig(data, "system_info", "system"); ok {
		tags := map[string]string{
			"hostname": hostname,
			"model":    str(info["model"]),
			"serial":   str(info["serial"]),
		}
		c.emit(enc, "system_info", tags, map[string]any{
			"sw_version":     info["sw-version"],
			"uptime_seconds": info["_uptime_seconds"],
		})
	}

	if usage, ok := data["resource_usage"].(map[string]any); ok && len(usage) > 0 {
		c.emit(enc, "system_resources", map[string]string{"hostname": hostname}, usage)
	}

	if disks, ok := data["disk_usage"].(map[string]any); ok {
		for _, mount := range sortedKeys(disks) {
			entry, ok := disks[mount].(map[string]any)
			if !ok {
				continue
			}
			c.emit(enc, "disk_usage",
				map[string]string{"hostname": hostname, "mount": mount},
				map[string]any{
					"device":      entry["device"],
					"use_percent": entry["use_percent"],
				})
		}
	}

	if ha, ok := dig(data, "ha_status", "group"); ok {
		if local, ok := ha["local-info"].(map[string]any); ok {
			c.emit(enc, "ha_state", map[string]string{"hostname": hostname}, map[string]any{
				"state":  local["state"],
				"mode":   local["mode"],
				"ha1_up": local["ha1-link-up"],
			})
		}
	}
}

func (c *Converter) convertInterfaces(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	for _, entry := range entries(data, "interface_info", "hw") {
		c.emit(enc, "interface_info",
			map[string]string{
				"hostname":  hostname,
				"interface": str(entry["name"]),
				"type":      str(entry["type"]),
			},
			map[string]any{
				"state":  entry["state"],
				"speed":  entry["speed"],
				"duplex": entry["duplex"],
				"mode":   entry["mode"],
			})
	}

	for _, entry := range entries(data, "interface_info", "ifnet") {
		c.emit(enc, "interface_logical",
			map[string]string{
				"hostname":  hostname,
				"interface": str(entry["name"]),
				"zone":      str(entry["zone"]),
			},
			map[string]any{
				"ip":  entry["ip"],
				"fwd": entry["fwd"],
				"tag": entry["tag"],
			})
	}

	counters, ok := data["interface_counters"].(map[string]any)
	if !ok {
		return
	}
	// The counter payload nests a second ifnet level.
	ifnet, _ := counters["ifnet"].(map[string]any)
	if inner, ok := ifnet["ifnet"].(map[string]any); ok {
		ifnet = inner
	}
	for _, entry := range entryList(ifnet) {
		c.emit(enc, "interface_counters",
			map[string]string{"hostname": hostname, "interface": str(entry["name"])},
			map[string]any{
				"ibytes":   entry["ibytes"],
				"obytes":   entry["obytes"],
				"ipackets": entry["ipackets"],
				"opackets": entry["opackets"],
				"ierrors":  entry["ierrors"],
				"idrops":   entry["idrops"],
			})
	}
}

func (c *Converter) convertSessions(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	info, ok := data["session_info"].(map[string]any)
	if !ok || len(info) == 0 {
		return
	}
	c.emit(enc, "sessions", map[string]string{"hostname": hostname}, map[string]any{
		"active": info["num-active"],
		"max":    info["num-max"],
		"tcp":    info["num-tcp"],
		"udp":    info["num-udp"],
		"icmp":   info["num-icmp"],
		"cps":    info["cps"],
		"pps":    info["pps"],
	})
}

func (c *Converter) convertGlobalProtect(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	summary, ok := data["gateway_summary"].(map[string]any)
	if !ok {
		return
	}

	if summary["TotalCurrentUsers"] != nil || summary["TotalPreviousUsers"] != nil {
		c.emit(enc, "globalprotect_users", map[string]string{"hostname": hostname}, map[string]any{
			"current_users":  summary["TotalCurrentUsers"],
			"previous_users": summary["TotalPreviousUsers"],
		})
	}

	if gateways, ok := summary["Gateway"].([]any); ok {
		for _, g := range gateways {
			gw, ok := g.(map[string]any)
			if !ok {
				continue
			}
			c.emit(enc, "globalprotect_gateway",
				map[string]string{"hostname": hostname, "gateway": str(gw["GatewayName"])},
				map[string]any{
					"current_users": gw["CurrentUsers"],
					"status":        gw["Status"],
				})
		}
	}
}

func (c *Converter) convertVPN(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	for _, entry := range entries(data, "vpn_flows", "IPSec") {
		c.emit(enc, "vpn_flow",
			map[string]string{"hostname": hostname, "tunnel": str(entry["name"])},
			map[string]any{
				"state":   entry["state"],
				"monitor": entry["mon"],
				"inner":   entry["inner-if"],
				"gwid":    entry["gwid"],
			})
	}

	if tunnels, ok := dig(data, "vpn_tunnels", "entries"); ok {
		if list, ok := tunnels["entry"].([]any); ok {
			c.emit(enc, "vpn_tunnels", map[string]string{"hostname": hostname}, map[string]any{
				"total": int64(len(list)),
			})
		}
	}
}

func (c *Converter) convertRouting(enc *lineprotocol.Encoder, hostname string, data map[string]any) {
	if peers, ok := data["bgp_peer_status"].(map[string]any); ok {
		established := int64(0)
		for _, name := range sortedKeys(peers) {
			peer, ok := peers[name].(map[string]any)
			if !ok {
				continue
			}
			state := str(peer["state"])
			if state == "Established" {
				established++
			}
			c.emit(enc, "bgp_peer",
				map[string]string{"hostname": hostname, "peer": name},
				map[string]any{
					"state":       state,
					"status_time": peer["status-time"],
				})
		}
		c.emit(enc, "bgp_summary", map[string]string{"hostname": hostname}, map[string]any{
			"peers_total":       int64(len(peers)),
			"peers_established": established,
		})
	}

	if table, ok := data["routing_table"].(map[string]any); ok {
		for _, vrf := range sortedKeys(table) {
			routes, ok := table[vrf].(map[string]any)
			if !ok {
				continue
			}
			c.emit(enc, "routing_table",
				map[string]string{"hostname": hostname, "vrf": vrf},
				map[string]any{"route_count": int64(len(routes))})
		}
	}
}

// emit writes one line. Tags and fields are sorted; nil and empty
// values are dropped; a line without fields is skipped entirely.
func (c *Converter) emit(enc *lineprotocol.Encoder, measurement string, tags map[string]string, fields map[string]any) {
	kept := make(map[string]lineprotocol.Value, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		if val, ok := fieldValue(v); ok {
			kept[k] = val
		}
	}
	if len(kept) == 0 {
		c.skipped++
		return
	}

	enc.StartLine(measurementPrefix + measurement)
	for _, k := range sortedTagKeys(tags) {
		if tags[k] != "" {
			enc.AddTag(k, tags[k])
		}
	}
	for _, k := range sortedValueKeys(kept) {
		enc.AddField(k, kept[k])
	}
	enc.EndLine(c.ts)
	c.lines++
}

// fieldValue maps normalized payload values onto line protocol types.
func fieldValue(v any) (lineprotocol.Value, bool) {
	switch val := v.(type) {
	case int64, float64, bool, string:
		return lineprotocol.NewValue(val)
	case int:
		return lineprotocol.NewValue(int64(val))
	default:
		return lineprotocol.Value{}, false
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// dig returns data[a][b] when both levels are maps.
func dig(data map[string]any, a, b string) (map[string]any, bool) {
	outer, ok := data[a].(map[string]any)
	if !ok {
		return nil, false
	}
	inner, ok := outer[b].(map[string]any)
	return inner, ok
}

// entries returns the normalized entry list at data[collection][group].
func entries(data map[string]any, collection, group string) []map[string]any {
	inner, ok := dig(data, collection, group)
	if !ok {
		return nil
	}
	return entryList(inner)
}

func entryList(node map[string]any) []map[string]any {
	list, ok := node["entry"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTagKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedValueKeys(m map[string]lineprotocol.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
