/*
Command Table & Sugar Methods

Adapted from the teacher's commands.go, which defines Redis command
names as typed constants organised by category. redio keeps that
shape but repurposes it: instead of a server-side dispatch table
mapping names to handlers, these constants back two lookup tables
that classify CLIENT-side reply shape — noOutputCommands (commands
whose reply carries no information a caller needs, filtered out of
Await's result per spec.md §4.9) and hashShapedCommands (commands
whose array reply is a flat key/value list that folds into a map per
§4.3).

Per-command sugar methods are intentionally thin: each is a one-line
wrapper over DB.Command, generated by hand from the tables below
rather than hand-implemented per command, per spec.md §9's design
note. Commands with no sugar method remain reachable through
DB.Command(name, args...).
*/
package redio

// CommandName is a typed Redis command name constant.
type CommandName string

const (
	cmdPing CommandName = "PING"
	cmdEcho CommandName = "ECHO"

	cmdGet     CommandName = "GET"
	cmdSet     CommandName = "SET"
	cmdGetSet  CommandName = "GETSET"
	cmdGetDel  CommandName = "GETDEL"
	cmdAppend  CommandName = "APPEND"
	cmdStrlen  CommandName = "STRLEN"
	cmdIncr    CommandName = "INCR"
	cmdIncrBy  CommandName = "INCRBY"
	cmdDecr    CommandName = "DECR"
	cmdDecrBy  CommandName = "DECRBY"
	cmdMGet    CommandName = "MGET"
	cmdMSet    CommandName = "MSET"
	cmdDel     CommandName = "DEL"
	cmdExists  CommandName = "EXISTS"
	cmdExpire  CommandName = "EXPIRE"
	cmdTTL     CommandName = "TTL"
	cmdPersist CommandName = "PERSIST"
	cmdKeys    CommandName = "KEYS"
	cmdFlushDB CommandName = "FLUSHDB"
	cmdSelect  CommandName = "SELECT"
	cmdAuth    CommandName = "AUTH"

	cmdHGet    CommandName = "HGET"
	cmdHSet    CommandName = "HSET"
	cmdHDel    CommandName = "HDEL"
	cmdHExists CommandName = "HEXISTS"
	cmdHGetAll CommandName = "HGETALL"
	cmdHKeys   CommandName = "HKEYS"
	cmdHVals   CommandName = "HVALS"
	cmdHLen    CommandName = "HLEN"

	cmdLPush  CommandName = "LPUSH"
	cmdRPush  CommandName = "RPUSH"
	cmdLPop   CommandName = "LPOP"
	cmdRPop   CommandName = "RPOP"
	cmdLRange CommandName = "LRANGE"
	cmdLLen   CommandName = "LLEN"

	cmdSAdd      CommandName = "SADD"
	cmdSRem      CommandName = "SREM"
	cmdSMembers  CommandName = "SMEMBERS"
	cmdSIsMember CommandName = "SISMEMBER"

	cmdZAdd   CommandName = "ZADD"
	cmdZRange CommandName = "ZRANGE"
	cmdZScore CommandName = "ZSCORE"

	cmdPublish     CommandName = "PUBLISH"
	cmdSubscribe   CommandName = "SUBSCRIBE"
	cmdUnsubscribe CommandName = "UNSUBSCRIBE"
	cmdPSubscribe  CommandName = "PSUBSCRIBE"
	cmdPUnsub      CommandName = "PUNSUBSCRIBE"

	cmdWatch   CommandName = "WATCH"
	cmdUnwatch CommandName = "UNWATCH"
	cmdMulti   CommandName = "MULTI"
	cmdExec    CommandName = "EXEC"
	cmdDiscard CommandName = "DISCARD"
)

// noOutputCommands lists commands whose reply carries no user-visible
// information in a pipelined batch (always "+OK" or similarly inert).
// Commands absent from this table default to "produces output", per
// spec.md §9.
var noOutputCommands = map[string]bool{
	string(cmdSet):       true,
	string(cmdMSet):      true,
	string(cmdSelect):    true,
	string(cmdAuth):      true,
	string(cmdFlushDB):   true,
	string(cmdWatch):     true,
	string(cmdUnwatch):   true,
	string(cmdMulti):     true,
	string(cmdDiscard):   true,
	string(cmdSubscribe): true,
	string(cmdPSubscribe): true,
}

// hashShapedCommands lists commands whose array reply is a flat
// key/value list that Await folds into a map (§4.3).
var hashShapedCommands = map[string]bool{
	string(cmdHGetAll): true,
}

func isNoOutputCommand(name string) bool {
	return noOutputCommands[name]
}

func isHashShapedCommand(name string) bool {
	return hashShapedCommands[name]
}

// flattenPairs flattens a map into alternating key/value arguments, as
// required by commands like HSET and MSET (spec.md §4.1) instead of
// letting the generic encoder serialise the map as JSON.
func flattenPairs(m map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(m)*2)
	for k, v := range m {
		out = append(out, k, v)
	}
	return out
}

func stringsToArgs(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// --- Connection commands ---

func (db *DB) Ping() *DB           { return db.Command(string(cmdPing)) }
func (db *DB) Echo(msg string) *DB { return db.Command(string(cmdEcho), msg) }

// --- String commands ---

func (db *DB) Get(key string) *DB                    { return db.Command(string(cmdGet), key) }
func (db *DB) Set(key string, value interface{}) *DB { return db.Command(string(cmdSet), key, value) }
func (db *DB) GetSet(key string, value interface{}) *DB {
	return db.Command(string(cmdGetSet), key, value)
}
func (db *DB) GetDel(key string) *DB { return db.Command(string(cmdGetDel), key) }
func (db *DB) Append(key string, value interface{}) *DB {
	return db.Command(string(cmdAppend), key, value)
}
func (db *DB) Strlen(key string) *DB                { return db.Command(string(cmdStrlen), key) }
func (db *DB) Incr(key string) *DB                  { return db.Command(string(cmdIncr), key) }
func (db *DB) IncrBy(key string, delta int64) *DB   { return db.Command(string(cmdIncrBy), key, delta) }
func (db *DB) Decr(key string) *DB                  { return db.Command(string(cmdDecr), key) }
func (db *DB) DecrBy(key string, delta int64) *DB   { return db.Command(string(cmdDecrBy), key, delta) }
func (db *DB) Del(keys ...string) *DB               { return db.Command(string(cmdDel), stringsToArgs(keys)...) }
func (db *DB) Exists(keys ...string) *DB            { return db.Command(string(cmdExists), stringsToArgs(keys)...) }
func (db *DB) Expire(key string, seconds int64) *DB { return db.Command(string(cmdExpire), key, seconds) }
func (db *DB) TTL(key string) *DB                   { return db.Command(string(cmdTTL), key) }
func (db *DB) Persist(key string) *DB               { return db.Command(string(cmdPersist), key) }
func (db *DB) Keys(pattern string) *DB              { return db.Command(string(cmdKeys), pattern) }
func (db *DB) FlushDB() *DB                         { return db.Command(string(cmdFlushDB)) }

func (db *DB) MGet(keys ...string) *DB { return db.Command(string(cmdMGet), stringsToArgs(keys)...) }

func (db *DB) MSet(pairs map[string]interface{}) *DB {
	return db.Command(string(cmdMSet), flattenPairs(pairs)...)
}

// --- Hash commands ---

func (db *DB) HGet(key, field string) *DB { return db.Command(string(cmdHGet), key, field) }

func (db *DB) HSet(key string, fields map[string]interface{}) *DB {
	args := append([]interface{}{key}, flattenPairs(fields)...)
	return db.Command(string(cmdHSet), args...)
}

func (db *DB) HDel(key string, fields ...string) *DB {
	return db.Command(string(cmdHDel), append([]interface{}{key}, stringsToArgs(fields)...)...)
}
func (db *DB) HExists(key, field string) *DB { return db.Command(string(cmdHExists), key, field) }
func (db *DB) HGetAll(key string) *DB        { return db.Command(string(cmdHGetAll), key) }
func (db *DB) HKeys(key string) *DB          { return db.Command(string(cmdHKeys), key) }
func (db *DB) HVals(key string) *DB          { return db.Command(string(cmdHVals), key) }
func (db *DB) HLen(key string) *DB           { return db.Command(string(cmdHLen), key) }

// --- List commands ---

func (db *DB) LPush(key string, values ...interface{}) *DB {
	return db.Command(string(cmdLPush), append([]interface{}{key}, values...)...)
}
func (db *DB) RPush(key string, values ...interface{}) *DB {
	return db.Command(string(cmdRPush), append([]interface{}{key}, values...)...)
}
func (db *DB) LPop(key string) *DB { return db.Command(string(cmdLPop), key) }
func (db *DB) RPop(key string) *DB { return db.Command(string(cmdRPop), key) }
func (db *DB) LRange(key string, start, stop int64) *DB {
	return db.Command(string(cmdLRange), key, start, stop)
}
func (db *DB) LLen(key string) *DB { return db.Command(string(cmdLLen), key) }

// --- Set commands ---

func (db *DB) SAdd(key string, members ...interface{}) *DB {
	return db.Command(string(cmdSAdd), append([]interface{}{key}, members...)...)
}
func (db *DB) SRem(key string, members ...interface{}) *DB {
	return db.Command(string(cmdSRem), append([]interface{}{key}, members...)...)
}
func (db *DB) SMembers(key string) *DB { return db.Command(string(cmdSMembers), key) }
func (db *DB) SIsMember(key string, member interface{}) *DB {
	return db.Command(string(cmdSIsMember), key, member)
}

// --- Sorted set commands ---

func (db *DB) ZAdd(key string, score float64, member interface{}) *DB {
	return db.Command(string(cmdZAdd), key, score, member)
}
func (db *DB) ZRange(key string, start, stop int64) *DB {
	return db.Command(string(cmdZRange), key, start, stop)
}
func (db *DB) ZScore(key string, member interface{}) *DB {
	return db.Command(string(cmdZScore), key, member)
}

// --- Pub/Sub publisher side (see pubsub.go for the subscriber receiver) ---

func (db *DB) Publish(channel string, payload interface{}) *DB {
	return db.Command(string(cmdPublish), channel, payload)
}

// --- Transaction commands ---

func (db *DB) Watch(keys ...string) *DB { return db.Command(string(cmdWatch), stringsToArgs(keys)...) }
func (db *DB) Unwatch() *DB             { return db.Command(string(cmdUnwatch)) }
func (db *DB) Multi() *DB               { return db.Command(string(cmdMulti)) }
func (db *DB) Exec() *DB                { return db.Command(string(cmdExec)) }
func (db *DB) Discard() *DB             { return db.Command(string(cmdDiscard)) }
