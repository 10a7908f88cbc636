// Package alerts evaluates threshold rules against refreshed monitor
// snapshots and delivers webhook notifications when rules fire or resolve.
//
// Rules are plain "field operator value" expressions from the config file,
// e.g. "loss_rate > 10", "current_ms > 250" or "status == down". Each
// rule/host pair fires at most once per cooldown period.
package alerts
