package queue

import "github.com/redis/go-redis/v9"

// enqueueScript atomically checks SEEN and pushes onto PENDING only on a
// first sighting of the fingerprint, grounded on queue.py's Queue.enqueue.
var enqueueScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
	redis.call("LPUSH", KEYS[2], ARGV[2])
	return 1
else
	return 0
end
`)

// dequeueScript atomically pops the tail of PENDING and writes it into
// PROCESSING with started_at stamped, grounded on queue.py's _dequeue_once.
var dequeueScript = redis.NewScript(`
local raw = redis.call("RPOP", KEYS[1])
if not raw then return false end

local job = cjson.decode(raw)
job.started_at = tonumber(ARGV[1])

local updated = cjson.encode(job)
redis.call("HSET", KEYS[2], job.id, updated)

return updated
`)

// ackFailureScript atomically moves a job from PROCESSING to FAILED with
// error metadata attached, grounded on queue.py's ack_failure. A no-op if
// the job has already been reclaimed out of PROCESSING.
var ackFailureScript = redis.NewScript(`
local raw = redis.call("HGET", KEYS[1], ARGV[1])
if not raw then return 0 end

local job = cjson.decode(raw)
job.error = ARGV[2]
job.failed_at = tonumber(ARGV[3])

redis.call("HSET", KEYS[2], ARGV[1], cjson.encode(job))
redis.call("HDEL", KEYS[1], ARGV[1])

return 1
`)

// requeueOneScript atomically requeues or permanently fails a single
// PROCESSING entry once it has been stale longer than timeoutSeconds,
// grounded on queue.py's _requeue_one. Returns 0 if the job is absent or
// not yet stale (strict >, per the spec's tie-break), 1 if moved.
var requeueOneScript = redis.NewScript(`
local raw = redis.call("HGET", KEYS[1], ARGV[1])
if not raw then return 0 end

local job = cjson.decode(raw)
local started = job.started_at or 0
local now = tonumber(ARGV[2])
local timeout = tonumber(ARGV[3])

if (now - started) <= timeout then
	return 0
end

job.attempts = (job.attempts or 0) + 1
job.started_at = nil

if job.attempts < tonumber(ARGV[4]) then
	redis.call("LPUSH", KEYS[2], cjson.encode(job))
else
	job.error = "Timeout: max attempts exceeded"
	job.failed_at = now
	redis.call("HSET", KEYS[3], job.id, cjson.encode(job))
end

redis.call("HDEL", KEYS[1], ARGV[1])
return 1
`)
