package stats

import (
	"regexp"
	"strconv"
	"strings"
)

// SystemModule covers system health: info, resources, disk, HA,
// environmentals, hardware, and the dataplane resource monitor.
func SystemModule() Module {
	return Module{
		Name:        "system",
		Description: "System info, resource usage, disk, HA state, and environmentals",
		Collections: []Collection{
			{
				Name:    "system_info",
				Command: "<show><system><info></info></system></show>",
				Parse:   annotateUptime,
			},
			{
				Name:    "resource_usage",
				Command: "<show><system><resources></resources></system></show>",
				Parse:   func(result any) any { return ParseTopOutput(resultText(result)) },
			},
			{
				Name:    "disk_usage",
				Command: "<show><system><disk-space></disk-space></system></show>",
				Parse:   func(result any) any { return ParseDiskSpace(resultText(result)) },
			},
			{
				Name:    "ha_status",
				Command: "<show><high-availability><state></state></high-availability></show>",
			},
			{
				Name:    "environmental",
				Command: "<show><system><environmentals></environmentals></system></show>",
			},
			{
				Name:    "hardware_info",
				Command: "<show><system><hardware></hardware></system></show>",
			},
			{
				Name:    "extended_cpu",
				Command: "<show><running><resource-monitor></resource-monitor></running></show>",
			},
		},
	}
}

// annotateUptime adds a machine-usable _uptime_seconds field next to
// the firewall's human-formatted uptime string.
func annotateUptime(result any) any {
	m, ok := result.(map[string]any)
	if !ok {
		return result
	}
	system, ok := m["system"].(map[string]any)
	if !ok {
		return m
	}
	if uptime, ok := system["uptime"].(string); ok {
		system["_uptime_seconds"] = UptimeSeconds(uptime)
	}
	return m
}

var uptimeRe = regexp.MustCompile(`^(?:(\d+)\s+days?,\s*)?(\d+):(\d+):(\d+)$`)

// UptimeSeconds converts the firewall's uptime format to seconds.
// "18 days, 22:03:09" becomes 1634589; an unparseable string becomes 0.
func UptimeSeconds(uptime string) int64 {
	m := uptimeRe.FindStringSubmatch(strings.TrimSpace(uptime))
	if m == nil {
		return 0
	}
	days, _ := strconv.ParseInt(m[1], 10, 64)
	hours, _ := strconv.ParseInt(m[2], 10, 64)
	minutes, _ := strconv.ParseInt(m[3], 10, 64)
	seconds, _ := strconv.ParseInt(m[4], 10, 64)
	return days*86400 + hours*3600 + minutes*60 + seconds
}

// resultText extracts the text form of a <result> that may arrive as a
// bare string or wrapped in a map.
func resultText(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["text"].(string); ok {
			return s
		}
	}
	return ""
}

var (
	topUptimeRe = regexp.MustCompile(`up\s+(\d+)\s+days?,\s*(\d+):(\d+)`)
	topLoadRe   = regexp.MustCompile(`load average:\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)
	topTasksRe  = regexp.MustCompile(`Tasks:\s*(\d+)\s+total,\s*(\d+)\s+running,\s*(\d+)\s+sleeping,\s*(\d+)\s+stopped,\s*(\d+)\s+zombie`)
	topCPURe    = regexp.MustCompile(`%Cpu\(s\):\s*([\d.]+)\s+us,\s*([\d.]+)\s+sy,\s*([\d.]+)\s+ni,\s*([\d.]+)\s+id,\s*([\d.]+)\s+wa,\s*([\d.]+)\s+hi,\s*([\d.]+)\s+si,\s*([\d.]+)\s+st`)
	topMemRe    = regexp.MustCompile(`MiB Mem\s*:\s*([\d.]+)\s+total,\s*([\d.]+)\s+free,\s*([\d.]+)\s+used,\s*([\d.]+)\s+buff/cache`)
	topSwapRe   = regexp.MustCompile(`MiB Swap:\s*([\d.]+)\s+total,\s*([\d.]+)\s+free,\s*([\d.]+)\s+used\.\s*([\d.]+)\s+avail Mem`)
)

// ParseTopOutput extracts load, task, CPU, and memory metrics from the
// management plane's top snapshot. Sections that do not match are
// simply absent from the result.
func ParseTopOutput(text string) map[string]any {
	metrics := map[string]any{}
	if strings.TrimSpace(text) == "" {
		return metrics
	}

	if m := topUptimeRe.FindStringSubmatch(text); m != nil {
		metrics["uptime_days"] = atoi64(m[1])
		metrics["uptime_hours"] = atoi64(m[2])
		metrics["uptime_minutes"] = atoi64(m[3])
	}
	if m := topLoadRe.FindStringSubmatch(text); m != nil {
		metrics["load_average_1min"] = atof(m[1])
		metrics["load_average_5min"] = atof(m[2])
		metrics["load_average_15min"] = atof(m[3])
	}
	if m := topTasksRe.FindStringSubmatch(text); m != nil {
		metrics["tasks_total"] = atoi64(m[1])
		metrics["tasks_running"] = atoi64(m[2])
		metrics["tasks_sleeping"] = atoi64(m[3])
		metrics["tasks_stopped"] = atoi64(m[4])
		metrics["tasks_zombie"] = atoi64(m[5])
	}
	if m := topCPURe.FindStringSubmatch(text); m != nil {
		metrics["cpu_user"] = atof(m[1])
		metrics["cpu_system"] = atof(m[2])
		metrics["cpu_nice"] = atof(m[3])
		metrics["cpu_idle"] = atof(m[4])
		metrics["cpu_iowait"] = atof(m[5])
		metrics["cpu_hardware_interrupt"] = atof(m[6])
		metrics["cpu_software_interrupt"] = atof(m[7])
		metrics["cpu_steal"] = atof(m[8])
	}
	if m := topMemRe.FindStringSubmatch(text); m != nil {
		total := atof(m[1])
		used := atof(m[3])
		metrics["memory_total_mib"] = total
		metrics["memory_free_mib"] = atof(m[2])
		metrics["memory_used_mib"] = used
		metrics["memory_buff_cache_mib"] = atof(m[4])
		if total > 0 {
			metrics["memory_usage_percent"] = used / total * 100
		}
	}
	if m := topSwapRe.FindStringSubmatch(text); m != nil {
		total := atof(m[1])
		used := atof(m[3])
		metrics["swap_total_mib"] = total
		metrics["swap_free_mib"] = atof(m[2])
		metrics["swap_used_mib"] = used
		metrics["memory_available_mib"] = atof(m[4])
		if total > 0 {
			metrics["swap_usage_percent"] = used / total * 100
		} else {
			metrics["swap_usage_percent"] = 0.0
		}
	}

	return metrics
}

// ParseDiskSpace turns df-style output into a map keyed by mount point.
func ParseDiskSpace(text string) map[string]any {
	usage := map[string]any{}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return usage
	}

	for _, line := range lines[1:] {
		parts := strings.Fields(line)
		if len(parts) < 6 {
			continue
		}
		usage[parts[5]] = map[string]any{
			"device":      parts[0],
			"size":        parts[1],
			"used":        parts[2],
			"available":   parts[3],
			"use_percent": strings.TrimSuffix(parts[4], "%"),
		}
	}
	return usage
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
