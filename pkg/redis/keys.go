package redis

import "strings"

// Keyspace prefixes every key the services write so several deployments can
// share one Redis database.
type Keyspace string

const DefaultKeyspace Keyspace = "sb"

// Key joins the non-empty parts under the keyspace with colons.
func (k Keyspace) Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(string(k))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func (c *Client) keyspace() Keyspace {
	if c == nil || c.keys == "" {
		return DefaultKeyspace
	}
	return c.keys
}

// IdempotencyKey is sb:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.keyspace().Key("idempotency", scope, id)
}

// RateLimitKey is sb:rate_limit:<scope>.
func (c *Client) RateLimitKey(scope string) string {
	return c.keyspace().Key("rate_limit", scope)
}

// ChannelKey is sb:channel:<name>.
func (c *Client) ChannelKey(name string) string {
	return c.keyspace().Key("channel", name)
}
