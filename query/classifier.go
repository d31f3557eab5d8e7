package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/mtprotogo/tgcore/internal/env"
)

// classifyOutcome is handle_error's verdict for one error code/string pair:
// whether the error was fully handled internally, whether a retry should be
// scheduled, and after how many seconds.
type classifyOutcome struct {
	handled       bool
	shouldRetry   bool
	retryAfterSec int
}

// migrationPrefixes lists the 303 error-string prefixes in the order
// query.cpp's get_dc_from_migration tries them.
var migrationPrefixes = []string{"USER_MIGRATE_", "PHONE_MIGRATE_", "NETWORK_MIGRATE_"}

// dcFromMigration extracts the target DC number from a 303 migration error
// string, or -1 if text doesn't match any known prefix.
func dcFromMigration(text string) int {
	for _, prefix := range migrationPrefixes {
		if n, ok := intFromPrefixedString(text, prefix); ok {
			return n
		}
	}
	return -1
}

// intFromPrefixedString extracts the integer suffix after prefix, the Go
// counterpart of get_int_from_prefixed_string.
func intFromPrefixedString(text, prefix string) (int, bool) {
	if !strings.HasPrefix(text, prefix) {
		return 0, false
	}
	suffix := text[len(prefix):]
	if suffix == "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// floodWaitSeconds extracts N from a "FLOOD_WAIT_N" string, defaulting to
// env.DefaultFloodWait (10 s) when absent, mirroring handle_error's
// 420/500/default branch.
func floodWaitSeconds(text string) int {
	if n, ok := intFromPrefixedString(text, "FLOOD_WAIT_"); ok {
		return n
	}
	return int(env.DefaultFloodWait / time.Second)
}
