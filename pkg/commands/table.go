package commands

// Class classifies a command for the dispatcher's routing decision (spec
// section 4.5).
type Class int

const (
	// PureLocal commands never modify the keyspace or go through Raft
	// (PING, ECHO, TIME, ...); INFO only reads the key count.
	PureLocal Class = iota
	// ReadLocal commands read the keyspace without going through Raft.
	ReadLocal
	// Write commands mutate the keyspace and must be ordered through Raft
	// when replication is enabled.
	Write
	// PubSub commands manage subscriptions and publish fan-out.
	PubSub
	// Cluster commands report cluster topology.
	Cluster
	// Transaction commands manage MULTI/EXEC/DISCARD/WATCH/UNWATCH.
	Transaction
	// Connection commands manage per-connection protocol state (SELECT,
	// READONLY, READWRITE).
	Connection
)

// Spec describes one command's arity and classification. Arity follows the
// Redis convention: a positive value is the exact length of the command
// array (verb included); a negative value is a minimum.
type Spec struct {
	Name  string
	Arity int
	Class Class
}

// CheckArity reports whether argc (including the verb) satisfies spec.
func (s Spec) CheckArity(argc int) bool {
	if s.Arity >= 0 {
		return argc == s.Arity
	}
	return argc >= -s.Arity
}

// Table is the static verb -> Spec table consulted by the dispatcher.
// Verbs are stored upper-cased.
var Table = map[string]Spec{
	// Connection / pure local.
	"PING":       {"PING", -1, PureLocal},
	"ECHO":       {"ECHO", 2, PureLocal},
	"TIME":       {"TIME", 1, PureLocal},
	"SELECT":     {"SELECT", 2, Connection},
	"READONLY":   {"READONLY", 1, Connection},
	"READWRITE":  {"READWRITE", 1, Connection},
	"RESET":      {"RESET", 1, Connection},
	"QUIT":       {"QUIT", 1, Connection},
	"SHUTDOWN":   {"SHUTDOWN", -1, PureLocal},
	"INFO":       {"INFO", -1, PureLocal},

	// Transaction control (never queued; handled before the MULTI gate).
	"MULTI":   {"MULTI", 1, Transaction},
	"EXEC":    {"EXEC", 1, Transaction},
	"DISCARD": {"DISCARD", 1, Transaction},
	"WATCH":   {"WATCH", -2, Transaction},
	"UNWATCH": {"UNWATCH", 1, Transaction},

	// Pub/Sub.
	"SUBSCRIBE":    {"SUBSCRIBE", -2, PubSub},
	"UNSUBSCRIBE":  {"UNSUBSCRIBE", -1, PubSub},
	"PSUBSCRIBE":   {"PSUBSCRIBE", -2, PubSub},
	"PUNSUBSCRIBE": {"PUNSUBSCRIBE", -1, PubSub},
	"PUBLISH":      {"PUBLISH", 3, PubSub},

	// Cluster.
	"CLUSTER": {"CLUSTER", -2, Cluster},

	// Keyspace / generic.
	"DEL":       {"DEL", -2, Write},
	"UNLINK":    {"UNLINK", -2, Write},
	"EXISTS":    {"EXISTS", -2, ReadLocal},
	"KEYS":      {"KEYS", 2, ReadLocal},
	"TYPE":      {"TYPE", 2, ReadLocal},
	"RENAME":    {"RENAME", 3, Write},
	"RENAMENX":  {"RENAMENX", 3, Write},
	"DBSIZE":    {"DBSIZE", 1, ReadLocal},
	"FLUSHDB":   {"FLUSHDB", -1, Write},
	"FLUSHALL":  {"FLUSHALL", -1, Write},

	// Strings.
	"GET":      {"GET", 2, ReadLocal},
	"SET":      {"SET", -3, Write},
	"SETNX":    {"SETNX", 3, Write},
	"GETSET":   {"GETSET", 3, Write},
	"GETDEL":   {"GETDEL", 2, Write},
	"APPEND":   {"APPEND", 3, Write},
	"STRLEN":   {"STRLEN", 2, ReadLocal},
	"GETRANGE": {"GETRANGE", 4, ReadLocal},
	"SETRANGE": {"SETRANGE", 4, Write},
	"INCR":     {"INCR", 2, Write},
	"DECR":     {"DECR", 2, Write},
	"INCRBY":   {"INCRBY", 3, Write},
	"DECRBY":   {"DECRBY", 3, Write},
	"MGET":     {"MGET", -2, ReadLocal},
	"MSET":     {"MSET", -3, Write},
	"MSETNX":   {"MSETNX", -3, Write},

	// Bit ops.
	"GETBIT":  {"GETBIT", 3, ReadLocal},
	"SETBIT":  {"SETBIT", 4, Write},
	"BITCOUNT": {"BITCOUNT", -2, ReadLocal},
	"BITOP":   {"BITOP", -4, Write},

	// Lists.
	"LPUSH":    {"LPUSH", -3, Write},
	"RPUSH":    {"RPUSH", -3, Write},
	"LPUSHX":   {"LPUSHX", -3, Write},
	"RPUSHX":   {"RPUSHX", -3, Write},
	"LPOP":     {"LPOP", -2, Write},
	"RPOP":     {"RPOP", -2, Write},
	"LRANGE":   {"LRANGE", 4, ReadLocal},
	"LINDEX":   {"LINDEX", 3, ReadLocal},
	"LLEN":     {"LLEN", 2, ReadLocal},
	"LSET":     {"LSET", 4, Write},
	"LTRIM":    {"LTRIM", 4, Write},
	"RPOPLPUSH": {"RPOPLPUSH", 3, Write},

	// Hashes.
	"HSET":    {"HSET", -4, Write},
	"HSETNX":  {"HSETNX", 4, Write},
	"HGET":    {"HGET", 3, ReadLocal},
	"HDEL":    {"HDEL", -3, Write},
	"HEXISTS": {"HEXISTS", 3, ReadLocal},
	"HLEN":    {"HLEN", 2, ReadLocal},
	"HKEYS":   {"HKEYS", 2, ReadLocal},
	"HVALS":   {"HVALS", 2, ReadLocal},
	"HGETALL": {"HGETALL", 2, ReadLocal},
	"HINCRBY": {"HINCRBY", 4, Write},
	"HSTRLEN": {"HSTRLEN", 3, ReadLocal},
	"HMGET":   {"HMGET", -3, ReadLocal},
	"HMSET":   {"HMSET", -4, Write},

	// Sets.
	"SADD":        {"SADD", -3, Write},
	"SREM":        {"SREM", -3, Write},
	"SISMEMBER":   {"SISMEMBER", 3, ReadLocal},
	"SMISMEMBER":  {"SMISMEMBER", -3, ReadLocal},
	"SMEMBERS":    {"SMEMBERS", 2, ReadLocal},
	"SCARD":       {"SCARD", 2, ReadLocal},
	"SINTER":      {"SINTER", -2, ReadLocal},
	"SUNION":      {"SUNION", -2, ReadLocal},
	"SDIFF":       {"SDIFF", -2, ReadLocal},
	"SINTERSTORE": {"SINTERSTORE", -3, Write},
	"SUNIONSTORE": {"SUNIONSTORE", -3, Write},
	"SDIFFSTORE":  {"SDIFFSTORE", -3, Write},
	"SMOVE":       {"SMOVE", 4, Write},
}

// Lookup returns the spec for verb (already upper-cased by the caller) and
// whether it was found.
func Lookup(verb string) (Spec, bool) {
	s, ok := Table[verb]
	return s, ok
}
