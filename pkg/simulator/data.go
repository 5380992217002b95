package simulator

import (
	"fmt"
	"strconv"
	"time"
)

func (s *Simulator) stateData(category string) map[string]any {
	status := "start"
	if !s.running.Load() {
		status = "stop"
	}

	switch category {
	case "network":
		return map[string]any{
			"wlan":    map[string]any{"ssid": "home", "ip": "192.168.1.24", "connected": "1"},
			"wired":   map[string]any{"ip": "0.0.0.0", "connected": "0"},
			"dhcp":    "1",
			"version": "1",
		}
	case "systeminfo":
		return map[string]any{
			"pms": map[string]any{
				"model":    "ESS-SIM",
				"serialno": s.cfg.Name,
				"version":  "05.00.04.00",
			},
			"batt":    map[string]any{"capacity": "9.8", "hbc_cycle_count_1": "412"},
			"version": map[string]any{"pms_version": "05.00.04.00", "hw_revision": s.cfg.HWRevision},
		}
	case "batt":
		return map[string]any{
			"status":           map[string]any{"soc": "74.2", "winter_setting": "off", "backup_setting": "off"},
			"safety_test_date": "2019-08-29",
		}
	case "home":
		return map[string]any{
			"statistics": map[string]any{
				"pcs_pv_total_power":           "2350",
				"batconv_power":                "820",
				"bat_use":                      "1",
				"bat_status":                   "1",
				"bat_user_soc":                 "74.2",
				"load_power":                   "1530",
				"grid_power":                   "0",
				"current_day_self_consumption": "93.1",
			},
			"direction": map[string]any{
				"is_direct_consuming_": "1",
				"is_battery_charging_": "1",
				"is_grid_selling_":     "0",
			},
			"operation":  map[string]any{"status": status, "mode": "1"},
			"wintermode": map[string]any{"winter_status": "off", "backup_status": "off"},
			"pcs_fault":  map[string]any{"pcs_status": "pcs_ok", "pcs_op_status": "pcs_run"},
		}
	case "common":
		return map[string]any{
			"PV":     map[string]any{"pv1_power": "1200", "pv2_power": "1150", "pv3_power": "0", "capacity": "8400"},
			"BATT":   map[string]any{"status": "1", "soc": "74.2", "dc_power": "820", "winter_setting": "off"},
			"GRID":   map[string]any{"active_power": "0", "a_phase": "230.1", "freq": "50.01"},
			"LOAD":   map[string]any{"load_power": "1530"},
			"PCS":    map[string]any{"today_self_consumption": "93.1", "operation_status": status},
			"DEVICE": map[string]any{"name": s.cfg.Name},
		}
	default:
		return map[string]any{}
	}
}

func graphParam(timespan string) (param, layout string, ok bool) {
	switch timespan {
	case "day", "week":
		return "year_month_day", "20060102", true
	case "month":
		return "year_month", "200601", true
	case "year":
		return "year", "2006", true
	default:
		return "", "", false
	}
}

func validGraphDevice(device string) bool {
	switch device {
	case "batt", "load", "pv":
		return true
	default:
		return false
	}
}

// graphData returns a deterministic series for device over the span starting
// at date.
func graphData(device, timespan string, date time.Time) map[string]any {
	points := map[string]int{"day": 24, "week": 7, "month": 30, "year": 12}[timespan]
	key := device + "_power"

	entries := make([]map[string]any, 0, points)
	for i := 0; i < points; i++ {
		var t time.Time
		switch timespan {
		case "day":
			t = date.Add(time.Duration(i) * time.Hour)
		case "year":
			t = date.AddDate(0, i, 0)
		default:
			t = date.AddDate(0, 0, i)
		}
		entries = append(entries, map[string]any{
			"time": t.Format("20060102150405"),
			key:    strconv.Itoa((i * 137) % 3000),
		})
	}
	return map[string]any{
		"loginfo":  entries,
		"timespan": timespan,
		"unit":     fmt.Sprintf("%s:W", device),
	}
}
