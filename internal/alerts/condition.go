package alerts

import (
	"strconv"
	"strings"

	"github.com/probewatch/probewatch/internal/monitor"
)

// evalCondition evaluates a rule condition string against a monitor snapshot.
//
// Supported expressions (field operator value):
//
//	loss_rate > 10
//	current_ms > 250
//	average_ms >= 100
//	status == down
//	status == stale
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, snap monitor.Snapshot) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "status" {
		if op == "==" {
			return string(snap.Status) == rhs, 0
		}
		return false, 0
	}

	var v float64
	switch field {
	case "loss_rate":
		v = snap.LossRate
	case "current_ms":
		v = snap.LastCurrent
	case "average_ms":
		v = snap.LastAverage
	default:
		return false, 0
	}

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
