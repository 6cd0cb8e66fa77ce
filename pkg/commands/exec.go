package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/resp"
)

// Execute runs one ReadLocal or Write command against ks and returns its
// RESP reply. The caller is responsible for holding the appropriate lock
// (RLock for ReadLocal, Lock for Write) — Execute never locks itself, so a
// whole MULTI/EXEC batch or a whole Raft log entry can be applied under one
// critical section.
func Execute(ks *keyspace.Keyspace, verb string, args [][]byte) resp.Value {
	switch verb {
	case "EXISTS":
		return resp.Int(int64(ks.Exists(toStrings(args)...)))
	case "KEYS":
		keys := ks.Keys(string(args[0]))
		out := make([][]byte, len(keys))
		for i, k := range keys {
			out[i] = []byte(k)
		}
		return resp.BulkArray(out)
	case "TYPE":
		return resp.Simple(ks.Type(string(args[0])).String())
	case "DBSIZE":
		return resp.Int(int64(ks.DBSize()))
	case "DEL", "UNLINK":
		return resp.Int(int64(ks.Del(toStrings(args)...)))
	case "RENAME":
		if err := ks.Rename(string(args[0]), string(args[1])); err != nil {
			return errValue(err)
		}
		return resp.OK()
	case "RENAMENX":
		ok, err := ks.RenameNX(string(args[0]), string(args[1]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	case "FLUSHDB":
		ks.FlushDB()
		return resp.OK()
	case "FLUSHALL":
		ks.FlushAll()
		return resp.OK()

	case "GET":
		v, ok, err := ks.Get(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(v)
	case "SET":
		return execSet(ks, args)
	case "SETNX":
		ok, err := ks.SetNX(string(args[0]), args[1])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	case "GETSET":
		old, _, err := ks.GetSet(string(args[0]), args[1])
		if err != nil {
			return errValue(err)
		}
		return resp.Bulk(old)
	case "GETDEL":
		v, ok, err := ks.GetDel(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(v)
	case "APPEND":
		n, err := ks.Append(string(args[0]), args[1])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "STRLEN":
		n, err := ks.StrLen(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "GETRANGE":
		start, e1 := parseIdx(args[1])
		end, e2 := parseIdx(args[2])
		if e1 != nil || e2 != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		v, err := ks.GetRange(string(args[0]), start, end)
		if err != nil {
			return errValue(err)
		}
		return resp.Bulk(v)
	case "SETRANGE":
		offset, e1 := parseIdx(args[1])
		if e1 != nil || offset < 0 {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		n, err := ks.SetRange(string(args[0]), offset, args[2])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "INCR":
		return execIncrBy(ks, args[0], 1)
	case "DECR":
		return execIncrBy(ks, args[0], -1)
	case "INCRBY":
		return execIncrByArg(ks, args[0], args[1], 1)
	case "DECRBY":
		return execIncrByArg(ks, args[0], args[1], -1)
	case "MGET":
		return resp.BulkArray(ks.MGet(toStrings(args)...))
	case "MSET":
		pairs, err := pairsOf(args)
		if err != nil {
			return resp.Err("ERR wrong number of arguments for 'mset' command")
		}
		ks.MSet(pairs)
		return resp.OK()
	case "MSETNX":
		pairs, err := pairsOf(args)
		if err != nil {
			return resp.Err("ERR wrong number of arguments for 'msetnx' command")
		}
		return resp.Int(boolInt(ks.MSetNX(pairs)))

	case "GETBIT":
		offset, err := parseIdx(args[1])
		if err != nil || offset < 0 {
			return resp.Err("ERR bit offset is not an integer or out of range")
		}
		n, err := ks.GetBit(string(args[0]), offset)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "SETBIT":
		offset, e1 := parseIdx(args[1])
		bit, e2 := parseIdx(args[2])
		if e1 != nil || e2 != nil || offset < 0 || (bit != 0 && bit != 1) {
			return resp.Err("ERR bit is not an integer or out of range")
		}
		old, err := ks.SetBit(string(args[0]), offset, bit)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(old))
	case "BITCOUNT":
		return execBitCount(ks, args)
	case "BITOP":
		return execBitOp(ks, args)

	case "LPUSH":
		n, err := ks.LPush(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "RPUSH":
		n, err := ks.RPush(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "LPUSHX":
		n, err := ks.LPushX(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "RPUSHX":
		n, err := ks.RPushX(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "LPOP":
		return execPop(ks, args, true)
	case "RPOP":
		return execPop(ks, args, false)
	case "LRANGE":
		start, e1 := parseIdx(args[1])
		stop, e2 := parseIdx(args[2])
		if e1 != nil || e2 != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		vals, err := ks.LRange(string(args[0]), start, stop)
		if err != nil {
			return errValue(err)
		}
		return resp.BulkArray(vals)
	case "LINDEX":
		idx, e1 := parseIdx(args[1])
		if e1 != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		v, ok, err := ks.LIndex(string(args[0]), idx)
		if err != nil {
			return errValue(err)
		}
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(v)
	case "LLEN":
		n, err := ks.LLen(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "LSET":
		idx, e1 := parseIdx(args[1])
		if e1 != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		if err := ks.LSet(string(args[0]), idx, args[2]); err != nil {
			return errValue(err)
		}
		return resp.OK()
	case "LTRIM":
		start, e1 := parseIdx(args[1])
		stop, e2 := parseIdx(args[2])
		if e1 != nil || e2 != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		if err := ks.LTrim(string(args[0]), start, stop); err != nil {
			return errValue(err)
		}
		return resp.OK()
	case "RPOPLPUSH":
		v, ok, err := ks.RPopLPush(string(args[0]), string(args[1]))
		if err != nil {
			return errValue(err)
		}
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(v)

	case "HSET":
		pairs, err := pairsOf(args[1:])
		if err != nil {
			return resp.Err("ERR wrong number of arguments for 'hset' command")
		}
		n, err := ks.HSet(string(args[0]), pairs)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "HMSET":
		pairs, err := pairsOf(args[1:])
		if err != nil {
			return resp.Err("ERR wrong number of arguments for 'hmset' command")
		}
		if _, err := ks.HSet(string(args[0]), pairs); err != nil {
			return errValue(err)
		}
		return resp.OK()
	case "HSETNX":
		ok, err := ks.HSetNX(string(args[0]), string(args[1]), args[2])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	case "HGET":
		v, ok, err := ks.HGet(string(args[0]), string(args[1]))
		if err != nil {
			return errValue(err)
		}
		if !ok {
			return resp.NullBulk()
		}
		return resp.Bulk(v)
	case "HDEL":
		n, err := ks.HDel(string(args[0]), toStrings(args[1:])...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "HEXISTS":
		ok, err := ks.HExists(string(args[0]), string(args[1]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	case "HLEN":
		n, err := ks.HLen(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "HKEYS":
		keys, err := ks.HKeys(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		out := make([][]byte, len(keys))
		for i, f := range keys {
			out[i] = []byte(f)
		}
		return resp.BulkArray(out)
	case "HVALS":
		vals, err := ks.HVals(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.BulkArray(vals)
	case "HGETALL":
		pairs, err := ks.HGetAll(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		out := make([][]byte, 0, len(pairs)*2)
		for _, p := range pairs {
			out = append(out, p[0], p[1])
		}
		return resp.BulkArray(out)
	case "HINCRBY":
		delta, err := parseIdx64(args[2])
		if err != nil {
			return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
		}
		n, err := ks.HIncrBy(string(args[0]), string(args[1]), delta)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(n)
	case "HSTRLEN":
		n, err := ks.HStrLen(string(args[0]), string(args[1]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "HMGET":
		vals, err := ks.HMGet(string(args[0]), toStrings(args[1:])...)
		if err != nil {
			return errValue(err)
		}
		return resp.BulkArray(vals)

	case "SADD":
		n, err := ks.SAdd(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "SREM":
		n, err := ks.SRem(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "SISMEMBER":
		ok, err := ks.SIsMember(string(args[0]), args[1])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	case "SMISMEMBER":
		oks, err := ks.SMIsMember(string(args[0]), args[1:]...)
		if err != nil {
			return errValue(err)
		}
		ns := make([]int64, len(oks))
		for i, ok := range oks {
			ns[i] = boolInt(ok)
		}
		return resp.IntArray(ns)
	case "SMEMBERS":
		vals, err := ks.SMembers(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.BulkArray(vals)
	case "SCARD":
		n, err := ks.SCard(string(args[0]))
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	case "SINTER":
		return execSetCombine(ks, keyspace.SetInter, args)
	case "SUNION":
		return execSetCombine(ks, keyspace.SetUnion, args)
	case "SDIFF":
		return execSetCombine(ks, keyspace.SetDiff, args)
	case "SINTERSTORE":
		return execSetCombineStore(ks, keyspace.SetInter, args)
	case "SUNIONSTORE":
		return execSetCombineStore(ks, keyspace.SetUnion, args)
	case "SDIFFSTORE":
		return execSetCombineStore(ks, keyspace.SetDiff, args)
	case "SMOVE":
		ok, err := ks.SMove(string(args[0]), string(args[1]), args[2])
		if err != nil {
			return errValue(err)
		}
		return resp.Int(boolInt(ok))
	}

	return resp.Err("ERR unknown command '" + verb + "'")
}

func execSet(ks *keyspace.Keyspace, args [][]byte) resp.Value {
	opts := keyspace.SetOpts{}
	for _, a := range args[2:] {
		switch strings.ToUpper(string(a)) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		default:
			return resp.Err("ERR " + keyspace.ErrSyntax.Error())
		}
	}
	ok, err := ks.Set(string(args[0]), args[1], opts)
	if err != nil {
		return errValue(err)
	}
	if !ok {
		return resp.NullBulk()
	}
	return resp.OK()
}

func execIncrBy(ks *keyspace.Keyspace, key []byte, delta int64) resp.Value {
	n, err := ks.IncrBy(string(key), delta)
	if err != nil {
		return errValue(err)
	}
	return resp.Int(n)
}

func execIncrByArg(ks *keyspace.Keyspace, key, deltaArg []byte, sign int64) resp.Value {
	delta, err := parseIdx64(deltaArg)
	if err != nil {
		return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
	}
	return execIncrBy(ks, key, sign*delta)
}

func execPop(ks *keyspace.Keyspace, args [][]byte, front bool) resp.Value {
	count := 1
	hasCount := len(args) > 1
	if hasCount {
		n, err := parseIdx(args[1])
		if err != nil || n < 0 {
			return resp.Err("ERR value is out of range, must be positive")
		}
		count = n
	}
	var (
		vals [][]byte
		err  error
	)
	if front {
		vals, err = ks.LPop(string(args[0]), count)
	} else {
		vals, err = ks.RPop(string(args[0]), count)
	}
	if err != nil {
		return errValue(err)
	}
	if !hasCount {
		if len(vals) == 0 {
			return resp.NullBulk()
		}
		return resp.Bulk(vals[0])
	}
	if vals == nil {
		return resp.NullArray()
	}
	return resp.BulkArray(vals)
}

func execBitCount(ks *keyspace.Keyspace, args [][]byte) resp.Value {
	key := string(args[0])
	if len(args) == 1 {
		n, err := ks.BitCount(key, 0, 0, false, false)
		if err != nil {
			return errValue(err)
		}
		return resp.Int(int64(n))
	}
	if len(args) != 3 && len(args) != 4 {
		return resp.Err("ERR " + keyspace.ErrSyntax.Error())
	}
	start, e1 := parseIdx(args[1])
	end, e2 := parseIdx(args[2])
	if e1 != nil || e2 != nil {
		return resp.Err("ERR " + keyspace.ErrNotInteger.Error())
	}
	byteRange := true
	if len(args) == 4 {
		switch strings.ToUpper(string(args[3])) {
		case "BYTE":
			byteRange = true
		case "BIT":
			byteRange = false
		default:
			return resp.Err("ERR " + keyspace.ErrSyntax.Error())
		}
	}
	n, err := ks.BitCount(key, start, end, byteRange, true)
	if err != nil {
		return errValue(err)
	}
	return resp.Int(int64(n))
}

func execBitOp(ks *keyspace.Keyspace, args [][]byte) resp.Value {
	var op keyspace.BitOp
	switch strings.ToUpper(string(args[0])) {
	case "AND":
		op = keyspace.BitAnd
	case "OR":
		op = keyspace.BitOr
	case "XOR":
		op = keyspace.BitXor
	case "NOT":
		op = keyspace.BitNot
	default:
		return resp.Err("ERR " + keyspace.ErrSyntax.Error())
	}
	n, err := ks.BitOpApply(op, string(args[1]), toStrings(args[2:])...)
	if err != nil {
		return errValue(err)
	}
	return resp.Int(int64(n))
}

func execSetCombine(ks *keyspace.Keyspace, op keyspace.SetOp, args [][]byte) resp.Value {
	members, err := ks.SCombine(op, toStrings(args)...)
	if err != nil {
		return errValue(err)
	}
	return resp.BulkArray(members)
}

func execSetCombineStore(ks *keyspace.Keyspace, op keyspace.SetOp, args [][]byte) resp.Value {
	n, err := ks.SCombineStore(op, string(args[0]), toStrings(args[1:])...)
	if err != nil {
		return errValue(err)
	}
	return resp.Int(int64(n))
}

func errValue(err error) resp.Value {
	if errors.Is(err, keyspace.ErrWrongType) {
		return resp.Err(err.Error())
	}
	return resp.Err("ERR " + err.Error())
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func pairsOf(args [][]byte) ([][2][]byte, error) {
	if len(args)%2 != 0 {
		return nil, errors.New("odd number of arguments")
	}
	out := make([][2][]byte, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		out = append(out, [2][]byte{args[i], args[i+1]})
	}
	return out, nil
}

func parseIdx(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseIdx64(b []byte) (int64, error) {
	return strconv.ParseInt(string(b), 10, 64)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
