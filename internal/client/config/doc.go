// Package config loads runtime configuration for the betclient CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file named by --config or BETCLIENT_CONFIG.
//  3. Environment variables: BETCLIENT_ plus the upper-cased key, with "."
//     replaced by "_" (BETCLIENT_BASE_URL, BETCLIENT_SESSION_IDLE_TIMEOUT).
//  4. Command-line flags registered with RegisterFlags, when set.
//
// # File schema
//
// Durations are Go duration strings:
//
//	{
//	  "base_url": "https://bets.example.com",
//	  "data_dir": "~/.betclient",
//	  "request_timeout": "15s",
//	  "session": {
//	    "max_retries": 3,
//	    "retry_base_delay": "1s",
//	    "max_retry_wait": "30s",
//	    "idle_timeout": "30m",
//	    "preemptive_lead": "1m",
//	    "token_lifetime": "10m"
//	  }
//	}
package config
