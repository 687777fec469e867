/*
Logging

The teacher carries a *log.Logger field on Server with a "[RedKit] "
prefix, set once in NewServer and consulted throughout the connection
lifecycle. redio generalises that to structured logging via
go.uber.org/zap: Pool carries an optional *zap.Logger, defaulting to a
no-op logger so embedding applications opt in explicitly. A new dial
logs at Debug and a broken connection logs at Warn; idle reaping,
connection close and pool-exhaustion waits are not logged.
*/
package redio

import "go.uber.org/zap"

func defaultLogger() *zap.Logger {
	return zap.NewNop()
}
